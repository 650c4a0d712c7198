package equilibrium

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"aquachem/internal/chem"
	"aquachem/internal/system"
)

// tinyAmount bounds species amounts from below during iteration. Trace
// redox species can equilibrate at amounts far under the solver floor,
// so the iterate is allowed well below it.
const tinyAmount = 1e-130

// Solver computes equilibrium states of one chemical system. A solver
// can be reused across states and is cheap to construct; it carries no
// mutable per-solve data beyond its options and logger.
type Solver struct {
	sys  *system.System
	opts Options
	log  *zap.Logger
}

// NewSolver returns an equilibrium solver for the system with default
// options.
func NewSolver(sys *system.System) (*Solver, error) {
	if sys == nil {
		return nil, fmt.Errorf("equilibrium: nil system")
	}
	return &Solver{sys: sys, opts: DefaultOptions(), log: zap.NewNop()}, nil
}

// SetOptions replaces the solver options.
func (s *Solver) SetOptions(opts Options) error {
	if err := opts.validate(); err != nil {
		return err
	}
	s.opts = opts
	return nil
}

// SetLogger attaches a logger for per-iteration diagnostics.
func (s *Solver) SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	s.log = log
}

// Solve equilibrates the state in place under its own temperature,
// pressure and composition.
func (s *Solver) Solve(st *system.State) (Result, error) {
	return s.SolveWith(st, nil, nil)
}

// SolveWith equilibrates the state under the given conditions and
// restrictions, either of which may be nil.
func (s *Solver) SolveWith(st *system.State, conds *Conditions, restr *Restrictions) (Result, error) {
	if st == nil {
		return Result{}, fmt.Errorf("equilibrium: nil state")
	}
	if st.System() != s.sys {
		return Result{}, fmt.Errorf("equilibrium: state belongs to a different system")
	}
	if conds != nil {
		if conds.hasTemperature() {
			if err := st.SetTemperature(conds.temperature, "K"); err != nil {
				return Result{}, err
			}
		}
		if conds.hasPressure() {
			if err := st.SetPressure(conds.pressure, "Pa"); err != nil {
				return Result{}, err
			}
		}
	}

	p := newProblem(s, st, conds, restr)
	return p.run()
}

// problem is the working set of one equilibrium calculation.
type problem struct {
	s  *Solver
	st *system.State

	a    [][]float64 // formula matrix
	b    []float64   // component amounts to conserve
	n    []float64   // species amounts, updated in place
	y    []float64   // multipliers per formula matrix row

	rowActive []bool
	usedRows  []int
	inert     map[int]bool
	lower     map[int]float64
	upper     map[int]float64

	minerals []int        // flattened indexes of pure condensed species
	present  map[int]bool // assemblage membership for minerals
}

func newProblem(s *Solver, st *system.State, conds *Conditions, restr *Restrictions) *problem {
	p := &problem{
		s:       s,
		st:      st,
		a:       s.sys.FormulaMatrix(),
		n:       st.Amounts(),
		inert:   map[int]bool{},
		lower:   map[int]float64{},
		upper:   map[int]float64{},
		present: map[int]bool{},
	}
	if restr != nil {
		p.inert = restr.inert
		p.lower = restr.lower
		p.upper = restr.upper
	}

	if conds != nil && conds.components != nil {
		p.b = append([]float64(nil), conds.components...)
	} else {
		p.b = st.ComponentAmounts()
	}

	p.markActiveRows()
	p.findMinerals()
	return p
}

// markActiveRows drops conservation rows whose component is effectively
// absent. Trace initial amounts put a little of every element into b;
// rows below the trace level would make the Jacobian singular.
func (p *problem) markActiveRows() {
	floor := p.s.opts.AmountFloor
	threshold := 10 * floor * float64(len(p.n))
	charge := p.s.sys.ChargeRow()

	p.rowActive = make([]bool, len(p.a))
	for j := range p.a {
		if j == charge {
			for i := range p.n {
				if p.a[j][i] != 0 {
					p.rowActive[j] = true
					break
				}
			}
			continue
		}
		p.rowActive[j] = math.Abs(p.b[j]) > threshold
	}
}

// findMinerals records species that form single-species condensed
// phases. Their activity is fixed at one, so they enter and leave the
// stable assemblage through the outer loop rather than the Newton step.
func (p *problem) findMinerals() {
	floor := p.s.opts.AmountFloor
	for _, phase := range p.s.sys.Phases() {
		if len(phase.Species) != 1 || phase.Aggregate != chem.AggregateSolid {
			continue
		}
		i := phase.Offset
		p.minerals = append(p.minerals, i)
		p.present[i] = p.n[i] > 10*floor
	}
}

func (p *problem) isMineral(i int) bool {
	for _, m := range p.minerals {
		if m == i {
			return true
		}
	}
	return false
}

// activeSpecies returns the flattened indexes of species that take part
// in the Newton iteration: reactive, composed only of active
// components, and (for minerals) in the current assemblage.
func (p *problem) activeSpecies() []int {
	var idx []int
	for i := range p.n {
		if p.inert[i] {
			continue
		}
		if p.isMineral(i) && !p.present[i] {
			continue
		}
		ok := true
		for j := range p.a {
			if !p.rowActive[j] && p.a[j][i] != 0 {
				ok = false
				break
			}
		}
		if ok {
			idx = append(idx, i)
		}
	}
	return idx
}

func (p *problem) activeRows() []int {
	var idx []int
	for j, on := range p.rowActive {
		if on {
			idx = append(idx, j)
		}
	}
	return idx
}

// independentRows returns the active conservation rows that are
// linearly independent over the active species. When every species'
// charge is fixed by its composition the charge row is implied by the
// element rows and would make the Newton matrix singular; rows are
// eliminated in order with charge last, so charge is the one dropped.
func (p *problem) independentRows(xIdx []int) []int {
	rows := p.activeRows()
	m, n := len(rows), len(xIdx)
	w := make([][]float64, m)
	for k, j := range rows {
		w[k] = make([]float64, n)
		for c, i := range xIdx {
			w[k][c] = p.a[j][i]
		}
	}

	const tol = 1e-10
	r := 0
	for c := 0; c < n && r < m; c++ {
		piv := -1
		for k := r; k < m; k++ {
			if math.Abs(w[k][c]) > tol {
				piv = k
				break
			}
		}
		if piv < 0 {
			continue
		}
		w[r], w[piv] = w[piv], w[r]
		rows[r], rows[piv] = rows[piv], rows[r]
		for k := r + 1; k < m; k++ {
			f := w[k][c] / w[r][c]
			if f == 0 {
				continue
			}
			for cc := c; cc < n; cc++ {
				w[k][cc] -= f * w[r][cc]
			}
		}
		r++
	}

	idx := append([]int(nil), rows[:r]...)
	sort.Ints(idx)
	return idx
}

func (p *problem) run() (Result, error) {
	opts := p.s.opts
	floor := opts.AmountFloor

	// Species outside the active component space sit at the floor and
	// stay there.
	for i := range p.n {
		if p.inert[i] {
			continue
		}
		for j := range p.a {
			if !p.rowActive[j] && p.a[j][i] != 0 {
				p.n[i] = floor
				break
			}
		}
	}

	p.y = make([]float64, len(p.a))
	res := Result{}
	for outer := 0; outer <= opts.MaxOuterIterations; outer++ {
		iters, resid, err := p.newton(outer == 0)
		res.Iterations += iters
		res.Residual = resid
		if err != nil {
			return res, err
		}
		converged := resid < opts.Epsilon

		if !converged {
			// A present mineral pinned near zero usually means it
			// should leave the assemblage entirely.
			if m, ok := p.exhaustedMineral(); ok {
				p.present[m] = false
				p.n[m] = floor
				res.AssemblageUpdates++
				p.s.log.Debug("removing exhausted phase",
					zap.String("species", p.s.sys.Species()[m].Name))
				continue
			}
			return res, fmt.Errorf("equilibrium did not converge after %d iterations (residual %.3e)",
				res.Iterations, resid)
		}

		changed := p.updateAssemblage(&res)
		if !changed {
			res.Converged = true
			break
		}
	}
	if !res.Converged {
		return res, fmt.Errorf("phase assemblage did not settle after %d updates", res.AssemblageUpdates)
	}

	if err := p.st.SetAmounts(p.n); err != nil {
		return res, err
	}

	// Rows dropped as absent or implied have no determined multiplier;
	// NaN marks them so downstream properties can fall back.
	full := make([]float64, len(p.a))
	for j := range full {
		full[j] = math.NaN()
	}
	for _, j := range p.usedRows {
		full[j] = p.y[j]
	}
	p.st.SetMultipliers(full)
	return res, nil
}

// exhaustedMineral reports a present mineral whose amount collapsed
// toward the floor, if any.
func (p *problem) exhaustedMineral() (int, bool) {
	best, bestAmount := -1, math.Inf(1)
	for _, m := range p.minerals {
		if p.present[m] && p.n[m] < 1e6*p.s.opts.AmountFloor && p.n[m] < bestAmount {
			best, bestAmount = m, p.n[m]
		}
	}
	return best, best >= 0
}

// updateAssemblage brings supersaturated minerals into the assemblage
// and drops ones that dissolved away. Reports whether anything changed.
func (p *problem) updateAssemblage(res *Result) bool {
	opts := p.s.opts
	changed := false

	bmax := 0.0
	for j, on := range p.rowActive {
		if on && math.Abs(p.b[j]) > bmax {
			bmax = math.Abs(p.b[j])
		}
	}
	seed := math.Max(100*opts.AmountFloor, 1e-3*bmax)

	for _, m := range p.minerals {
		if p.present[m] {
			if p.n[m] <= 10*opts.AmountFloor {
				p.present[m] = false
				p.n[m] = opts.AmountFloor
				res.AssemblageUpdates++
				changed = true
			}
			continue
		}
		lnOmega, ok := p.saturation(m)
		if ok && lnOmega > opts.Epsilon {
			p.present[m] = true
			p.n[m] = seed
			res.AssemblageUpdates++
			changed = true
			p.s.log.Debug("adding supersaturated phase",
				zap.String("species", p.s.sys.Species()[m].Name),
				zap.Float64("lnOmega", lnOmega))
		}
	}
	return changed
}

// saturation returns ln of the saturation ratio for a pure condensed
// species under the current multipliers. Not defined when the species
// contains an inactive component.
func (p *problem) saturation(m int) (float64, bool) {
	for j := range p.a {
		if p.a[j][m] != 0 && !p.rowActive[j] {
			return 0, false
		}
	}
	lnOmega := -p.s.sys.Species()[m].G0 / (chem.GasConstant * p.st.Temperature())
	for _, j := range p.usedRows {
		lnOmega += p.a[j][m] * p.y[j]
	}
	return lnOmega, true
}

// newton runs the inner Lagrange-Newton iteration for the current
// assemblage. It returns the iteration count and the final residual.
func (p *problem) newton(seedY bool) (int, float64, error) {
	opts := p.s.opts
	xIdx := p.activeSpecies()
	if len(xIdx) == 0 {
		return 0, 0, fmt.Errorf("equilibrium: no reactive species")
	}
	yIdx := p.independentRows(xIdx)
	p.usedRows = yIdx
	nx, ny := len(xIdx), len(yIdx)
	dim := nx + ny

	if err := p.st.SetAmounts(p.n); err != nil {
		return 0, 0, err
	}
	props, err := p.st.Props()
	if err != nil {
		return 0, 0, err
	}
	if seedY && !p.seedFromState(yIdx) {
		p.initMultipliers(props, xIdx, yIdx)
	}

	jac := mat.NewDense(dim, dim, nil)
	rhs := mat.NewVecDense(dim, nil)
	dx := mat.NewVecDense(dim, nil)

	resid := math.Inf(1)
	for iter := 1; iter <= opts.MaxIterations; iter++ {
		resid = 0
		for ii, i := range xIdx {
			f := props.MuRT(i)
			for _, j := range yIdx {
				f -= p.a[j][i] * p.y[j]
			}
			rhs.SetVec(ii, -f)
			pinned := p.n[i] <= 10*tinyAmount && f > 0
			if !pinned && !p.atBound(i) && math.Abs(f) > resid {
				resid = math.Abs(f)
			}
		}
		for jj, j := range yIdx {
			// A conservation row is judged relative to its own
			// component inventory, not the largest one, so minor
			// components balance to the same relative precision as
			// the solvent.
			g := -p.b[j]
			inv := 0.0
			for i, ni := range p.n {
				g += p.a[j][i] * ni
				inv += math.Abs(p.a[j][i]) * ni
			}
			rhs.SetVec(nx+jj, -g)
			scale := math.Max(math.Abs(p.b[j]), inv)
			if scale == 0 {
				scale = 1
			}
			if r := math.Abs(g) / scale; r > resid {
				resid = r
			}
		}
		if resid < opts.Epsilon {
			p.s.log.Debug("equilibrium converged",
				zap.Int("iterations", iter-1), zap.Float64("residual", resid))
			return iter - 1, resid, nil
		}

		for ii, i := range xIdx {
			for kk, k := range xIdx {
				jac.Set(ii, kk, props.DlnaDlnn(i, k))
			}
			for jj, j := range yIdx {
				jac.Set(ii, nx+jj, -p.a[j][i])
			}
		}
		for jj, j := range yIdx {
			for kk, k := range xIdx {
				jac.Set(nx+jj, kk, p.a[j][k]*p.n[k])
			}
			for kk := 0; kk < ny; kk++ {
				jac.Set(nx+jj, nx+kk, 0)
			}
		}

		var lu mat.LU
		lu.Factorize(jac)
		if err := lu.SolveVecTo(dx, false, rhs); err != nil {
			// The Jacobian spans amounts from the floor up to tens of
			// moles of water, so a large condition number is the normal
			// case and the computed step is still usable.
			var cond mat.Condition
			if !errors.As(err, &cond) {
				return iter, resid, fmt.Errorf("equilibrium: singular Newton system: %w", err)
			}
		}
		for ii := 0; ii < dim; ii++ {
			if v := dx.AtVec(ii); math.IsNaN(v) || math.IsInf(v, 0) {
				return iter, resid, fmt.Errorf("equilibrium: singular Newton system")
			}
		}

		alpha := 1.0
		for ii := 0; ii < nx; ii++ {
			if step := math.Abs(dx.AtVec(ii)); step*alpha > opts.StepLimit {
				alpha = opts.StepLimit / step
			}
		}

		for ii, i := range xIdx {
			ni := p.n[i] * math.Exp(alpha*dx.AtVec(ii))
			if ni < tinyAmount {
				ni = tinyAmount
			}
			if lo, ok := p.lower[i]; ok && ni < lo {
				ni = lo
			}
			if hi, ok := p.upper[i]; ok && ni > hi {
				ni = hi
			}
			p.n[i] = ni
		}
		for jj := range yIdx {
			p.y[yIdx[jj]] += alpha * dx.AtVec(nx+jj)
		}

		if err := p.st.SetAmounts(p.n); err != nil {
			return iter, resid, err
		}
		props, err = p.st.Props()
		if err != nil {
			return iter, resid, err
		}
	}
	return opts.MaxIterations, resid, nil
}

// atBound reports whether a species amount sits on one of its
// restriction bounds, in which case its mass-action residual is not
// required to vanish.
func (p *problem) atBound(i int) bool {
	if lo, ok := p.lower[i]; ok && p.n[i] <= lo {
		return true
	}
	if hi, ok := p.upper[i]; ok && p.n[i] >= hi {
		return true
	}
	return false
}

// seedFromState reuses the multipliers of a previous solve of the same
// state when they cover every row of this one. Repeated solves along a
// reaction path then start next to the solution.
func (p *problem) seedFromState(yIdx []int) bool {
	y := p.st.Multipliers()
	if y == nil {
		return false
	}
	for _, j := range yIdx {
		if math.IsNaN(y[j]) {
			return false
		}
	}
	for _, j := range yIdx {
		p.y[j] = y[j]
	}
	return true
}

// initMultipliers seeds the multipliers with the least-squares solution
// of the mass-action conditions at the initial composition.
func (p *problem) initMultipliers(props *system.Props, xIdx, yIdx []int) {
	nx, ny := len(xIdx), len(yIdx)
	if ny == 0 {
		return
	}
	m := mat.NewDense(nx, ny, nil)
	rhs := mat.NewDense(nx, 1, nil)
	for ii, i := range xIdx {
		for jj, j := range yIdx {
			m.Set(ii, jj, p.a[j][i])
		}
		rhs.Set(ii, 0, props.MuRT(i))
	}
	var sol mat.Dense
	if err := sol.Solve(m, rhs); err != nil {
		return
	}
	for jj, j := range yIdx {
		p.y[j] = sol.At(jj, 0)
	}
}
