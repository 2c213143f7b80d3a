package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"fleetconsole/backend/libs/telemetry/classifier"
	"fleetconsole/backend/libs/telemetry/models"
)

func newClassifyCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "classify [file]",
		Short: "Classify position samples offline (reads stdin without a file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("classify: %w", err)
				}
				defer f.Close()
				in = f
			}

			samples, err := readSamples(in)
			if err != nil {
				return fmt.Errorf("classify: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				alerts := make([]models.Alert, 0, len(samples))
				for _, s := range samples {
					alerts = append(alerts, classifier.BuildAlert(s, models.DeviceRef{DeviceID: s.DeviceID}))
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(alerts)
			}
			for _, s := range samples {
				res := classifier.Classify(s)
				fmt.Fprintf(out, "%s\t%s\t%s\n", s.ID, res.Severity, res.Description())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print full alerts as JSON")
	return cmd
}

// readSamples accepts a single JSON object or an array of them.
func readSamples(r io.Reader) ([]models.PositionSample, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("no samples in input")
	}
	if data[0] == '[' {
		var samples []models.PositionSample
		if err := json.Unmarshal(data, &samples); err != nil {
			return nil, fmt.Errorf("decode samples: %w", err)
		}
		return samples, nil
	}
	var sample models.PositionSample
	if err := json.Unmarshal(data, &sample); err != nil {
		return nil, fmt.Errorf("decode sample: %w", err)
	}
	return []models.PositionSample{sample}, nil
}
