package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/space-catalog/pkg/catalog"
)

func newCreateCmd(a *app) *cobra.Command {
	var (
		name, typ, description   string
		mass, diameter, distance string
		year                     string
		habitable                bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a space object",
		Long: `Add a space object. Every field is checked before anything is sent:
name at least 3 characters, type at least 2, mass and diameter positive,
distance not negative, discovery year between 1500 and the current year,
description at least 10 characters.`,
		Example: `  catalog create --name "Kepler-22b" --type Exoplanet --mass 2.1e25 \
    --diameter 30000 --distance 600 --year 2011 --habitable \
    --description "First transiting planet in a habitable zone"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			draft, err := catalog.ParseDraft(map[string]string{
				catalog.FieldName:          name,
				catalog.FieldType:          typ,
				catalog.FieldMass:          mass,
				catalog.FieldDiameter:      diameter,
				catalog.FieldDistance:      distance,
				catalog.FieldDiscoveryYear: year,
				catalog.FieldIsHabitable:   strconv.FormatBool(habitable),
				catalog.FieldDescription:   description,
			}, time.Now())
			if err != nil {
				writeValidation(a, err)
				return err
			}

			created, err := a.mutations().Create(cmd.Context(), draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "id: %s\n", created.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&name, "name", "", "object name")
	f.StringVar(&typ, "type", "", "object type, e.g. Star or Exoplanet")
	f.StringVar(&mass, "mass", "", "mass in kg")
	f.StringVar(&diameter, "diameter", "", "diameter in km")
	f.StringVar(&distance, "distance", "", "distance in light years")
	f.StringVar(&year, "year", "", "discovery year")
	f.BoolVar(&habitable, "habitable", false, "mark the object habitable")
	f.StringVar(&description, "description", "", "free-text description")
	return cmd
}

// writeValidation prints one line per violated field rule.
func writeValidation(a *app, err error) {
	var verr *catalog.ValidationError
	if !errors.As(err, &verr) {
		return
	}
	for _, f := range verr.Fields {
		fmt.Fprintf(a.out, "  %s: %s\n", f.Field, f.Message)
	}
}
