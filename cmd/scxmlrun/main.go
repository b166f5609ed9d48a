// Command scxmlrun is a small CLI harness around a scxml.Session, adapted
// from the teacher's cmd/demo/main.go (ticker-driven traffic-light demo,
// functional-options wiring) into cobra subcommands so persistence and
// visualization can be exercised independently of the always-on demo loop.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/comalice/scxml"
	"github.com/comalice/scxml/examples/trafficlight"
	"github.com/comalice/scxml/internal/production"
)

func main() {
	root := &cobra.Command{Use: "scxmlrun", Short: "Run, visualize, or replay an SCXML session"}
	root.AddCommand(runCmd(), visualizeCmd(), replayCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	var snapshotDir string
	var cycles int
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the demo traffic-light machine, snapshotting each cycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := trafficlight.Build()
			if err != nil {
				return err
			}

			persister, err := production.NewJSONPersister(snapshotDir)
			if err != nil {
				return err
			}

			sess, err := scxml.New(doc)
			if err != nil {
				return err
			}
			if err := sess.Start(); err != nil {
				return err
			}

			ticker := time.NewTicker(2 * time.Second)
			defer ticker.Stop()
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

			for i := 0; i < cycles; i++ {
				select {
				case <-ticker.C:
				case <-sig:
					fmt.Println("shutting down")
					return nil
				}
				sess.SendExternal("TIMER", nil)
				if err := sess.RunUntilIdle(); err != nil {
					return err
				}
				fmt.Println("configuration:", sess.Configuration())

				snap, err := sess.Snapshot()
				if err != nil {
					return err
				}
				if err := persister.Save(context.Background(), snap); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&snapshotDir, "snapshot-dir", "/tmp/scxmlrun", "directory to write session snapshots")
	cmd.Flags().IntVar(&cycles, "cycles", 12, "number of TIMER cycles to run")
	return cmd
}

func visualizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "visualize",
		Short: "Print the demo machine's DOT graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := trafficlight.Build()
			if err != nil {
				return err
			}
			v := &production.DefaultVisualizer{}
			fmt.Println(v.ExportDOT(doc, []string{doc.Initial}))
			return nil
		},
	}
	return cmd
}

func replayCmd() *cobra.Command {
	var snapshotDir string
	cmd := &cobra.Command{
		Use:   "replay <session-id>",
		Short: "Load a persisted snapshot and print its active configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			persister, err := production.NewJSONPersister(snapshotDir)
			if err != nil {
				return err
			}
			snap, err := persister.Load(context.Background(), args[0])
			if err != nil {
				return err
			}

			doc, err := trafficlight.Build()
			if err != nil {
				return err
			}
			if err := production.Validate(doc, snap); err != nil {
				return err
			}
			sess, err := scxml.New(doc, scxml.WithSessionID(snap.SessionID))
			if err != nil {
				return err
			}
			if err := sess.Restore(snap); err != nil {
				return err
			}
			fmt.Println("restored configuration:", sess.Configuration())
			return nil
		},
	}
	cmd.Flags().StringVar(&snapshotDir, "snapshot-dir", "/tmp/scxmlrun", "directory snapshots were written to")
	return cmd
}
