package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sahasra-iot/meterlink/meterdata"
	"github.com/sahasra-iot/meterlink/serial"
	"github.com/sahasra-iot/meterlink/session"
)

func newReadCmd() *cobra.Command {
	var includeTOD bool
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Perform one full reading and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			port, err := serial.Open(cfg.SerialSettings())
			if err != nil {
				return fmt.Errorf("open %s: %w", cfg.Device, err)
			}
			defer port.Close()
			port.SetLogger(logger)

			sess := session.New(port, cfg.SessionSettings())
			sess.SetLogger(logger)

			if err := sess.Connect(); err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer sess.Disconnect()

			var rec meterdata.Record
			readErr := sess.ReadAll(&rec)

			payload, err := rec.JSON(includeTOD)
			if err != nil {
				return err
			}
			var pretty map[string]interface{}
			if err := json.Unmarshal(payload, &pretty); err == nil {
				if out, err := json.MarshalIndent(pretty, "", "  "); err == nil {
					payload = out
				}
			}
			fmt.Fprintln(os.Stdout, string(payload))
			return readErr
		},
	}
	cmd.Flags().BoolVar(&includeTOD, "tod", true, "include time-of-day zones in the output")
	return cmd
}
