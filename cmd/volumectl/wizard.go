package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sabledisk/volumectl/internal/volume"
)

var wizardCmd = &cobra.Command{
	Use:     "wizard",
	GroupID: "volumes",
	Short:   "Build and create a single-region volume interactively",
	Long: `wizard is an interactive form for hand-building a volume whose
construction request is a single Region leaf, so an operator can create a
test volume without writing the construction-request JSON by hand. For
anything with sub-volumes or a read-only parent, write the JSON and use
"volumectl create" instead.`,
	RunE: runWizard,
}

func init() {
	rootCmd.AddCommand(wizardCmd)
}

func runWizard(cmd *cobra.Command, args []string) error {
	var (
		targets  string
		readOnly bool
		confirm  bool
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Targets").
				Description("Comma-separated storage-server endpoints for this region").
				Placeholder("10.0.0.1:1000, 10.0.0.1:1001").
				Value(&targets).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("at least one target is required")
					}
					return nil
				}),

			huh.NewConfirm().
				Title("Read-only?").
				Description("Read-only regions count toward a shared snapshot's reference count").
				Value(&readOnly),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Create this volume?").
				Affirmative("Create").
				Negative("Cancel").
				Value(&confirm),
		),
	).WithTheme(huh.ThemeDracula())

	if err := form.Run(); err != nil {
		if err == huh.ErrUserAborted {
			fmt.Fprintln(os.Stderr, "volume creation canceled.")
			return nil
		}
		return fmt.Errorf("form error: %w", err)
	}
	if !confirm {
		fmt.Fprintln(os.Stderr, "volume creation canceled.")
		return nil
	}

	var parsed []string
	for _, t := range strings.Split(targets, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			parsed = append(parsed, t)
		}
	}

	req := volume.ConstructionRequest{
		Kind: volume.KindRegion,
		Opts: volume.RegionOpts{Target: parsed, ReadOnly: readOnly},
	}
	encoded, err := req.Encode()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	s, _, err := loadStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	v, err := s.VolumeCreate(ctx, volume.Volume{ID: uuid.New(), Data: encoded})
	if err != nil {
		return err
	}
	return printVolume(v)
}
