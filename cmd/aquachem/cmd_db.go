package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"aquachem/internal/chem"
	"aquachem/internal/database"
)

var (
	dbName      string
	dbFile      string
	dbAggregate string
)

// dbCmd inspects thermodynamic databases
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect thermodynamic databases",
}

var dbSpeciesCmd = &cobra.Command{
	Use:   "species",
	Short: "List the species of a database",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		species := db.Species()
		if dbAggregate != "" {
			agg, err := parseAggregate(dbAggregate)
			if err != nil {
				return err
			}
			species = db.SpeciesWithAggregate(agg)
		}
		fmt.Printf("%-16s %-10s %8s %12s %14s\n", "NAME", "STATE", "CHARGE", "MOLAR MASS", "G0 (J/mol)")
		for _, sp := range species {
			fmt.Printf("%-16s %-10s %8.0f %12.5f %14.2f\n",
				sp.Name, sp.Aggregate, sp.Charge(), sp.MolarMass(), sp.G0)
		}
		fmt.Printf("%d species\n", len(species))
		return nil
	},
}

var dbElementsCmd = &cobra.Command{
	Use:   "elements",
	Short: "List the elements covered by a database",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		fmt.Println(strings.Join(db.Elements(), " "))
		return nil
	},
}

func openDatabase() (*database.Database, error) {
	if dbFile != "" {
		return database.Load(dbFile)
	}
	return database.Embedded(dbName)
}

func parseAggregate(name string) (chem.AggregateState, error) {
	switch name {
	case "aqueous":
		return chem.AggregateAqueous, nil
	case "gas":
		return chem.AggregateGas, nil
	case "solid":
		return chem.AggregateSolid, nil
	case "exchange":
		return chem.AggregateExchange, nil
	}
	return chem.AggregateUndefined, fmt.Errorf("unknown aggregate state %q", name)
}

func init() {
	dbCmd.PersistentFlags().StringVar(&dbName, "database", "phreeqc.dat", "embedded database name")
	dbCmd.PersistentFlags().StringVar(&dbFile, "file", "", "database file path (overrides --database)")
	dbSpeciesCmd.Flags().StringVar(&dbAggregate, "aggregate", "", "filter by aggregate state (aqueous|gas|solid|exchange)")

	dbCmd.AddCommand(dbSpeciesCmd)
	dbCmd.AddCommand(dbElementsCmd)
	rootCmd.AddCommand(dbCmd)
}
