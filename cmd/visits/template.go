package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jdziat/simple-recurring-visits/pkg/core"
)

// templateFile is the YAML document read by `template import`.
//
//	customer_id: acme-hq
//	assigned_to_id: tech-ana
//	date: 2025-01-06
//	groups:
//	  - name: Lobby
//	    points:
//	      - plant_type: Ficus
//	        pot_type: Ceramic
//	points:
//	  - plant_type: Palm
type templateFile struct {
	CustomerID   string          `yaml:"customer_id"`
	AssignedToID string          `yaml:"assigned_to_id"`
	Date         string          `yaml:"date"`
	Groups       []templateGroup `yaml:"groups"`
	Points       []templatePoint `yaml:"points"`
}

type templateGroup struct {
	Name   string          `yaml:"name"`
	Points []templatePoint `yaml:"points"`
}

type templatePoint struct {
	PlantType string `yaml:"plant_type"`
	PotType   string `yaml:"pot_type"`
}

func newTemplateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Manage template jobs",
	}
	cmd.AddCommand(newTemplateImportCmd(a))
	return cmd
}

func newTemplateImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Store a template job with its groups and service points",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tf, err := readTemplateFile(args[0])
			if err != nil {
				return err
			}

			store, closeStore, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore()

			var jobID string
			err = store.WithinTx(cmd.Context(), func(ctx context.Context, w core.JobWriter) error {
				id, err := tf.write(ctx, w)
				jobID = id
				return err
			})
			if err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}

			a.log.Info("template imported", "job_id", jobID, "groups", len(tf.Groups))
			fmt.Fprintln(cmd.OutOrStdout(), jobID)
			return nil
		},
	}
}

func readTemplateFile(path string) (*templateFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var tf templateFile
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&tf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	tpl := core.Template{CustomerID: tf.CustomerID, AssignedToID: tf.AssignedToID}
	if err := tpl.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &tf, nil
}

// write stores the template job and its children in order and returns the
// job ID.
func (tf *templateFile) write(ctx context.Context, w core.JobWriter) (string, error) {
	date, err := parseDateFlag("date", tf.Date)
	if err != nil {
		return "", err
	}
	if date.IsZero() {
		date = core.DateOf(time.Now())
	}

	count := len(tf.Points)
	for _, g := range tf.Groups {
		count += len(g.Points)
	}

	job := &core.Job{
		CustomerID:   tf.CustomerID,
		AssignedToID: tf.AssignedToID,
		Date:         date,
		PlantCount:   count,
	}
	if err := w.CreateJob(ctx, job); err != nil {
		return "", err
	}

	for gi, g := range tf.Groups {
		group := &core.JobGroup{JobID: job.ID, Name: g.Name, Position: gi}
		if err := w.CreateGroup(ctx, group); err != nil {
			return "", err
		}
		if err := writePoints(ctx, w, job.ID, &group.ID, g.Points); err != nil {
			return "", err
		}
	}
	if err := writePoints(ctx, w, job.ID, nil, tf.Points); err != nil {
		return "", err
	}
	return job.ID, nil
}

func writePoints(ctx context.Context, w core.JobWriter, jobID string, groupID *string, points []templatePoint) error {
	for i, p := range points {
		sp := &core.ServicePoint{
			JobID:     jobID,
			GroupID:   groupID,
			PlantType: p.PlantType,
			PotType:   p.PotType,
			Position:  i,
		}
		if err := w.CreateServicePoint(ctx, sp); err != nil {
			return err
		}
	}
	return nil
}
