package main

import (
	"fmt"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"

	"github.com/wirereport/wirereport/pkg/app"
)

// program adapts the application loop to the service manager interface.
// Start must not block, so the loop runs in a goroutine and the service
// manager kills the process on Stop.
type program struct {
	params app.RunParams
	errCh  chan error
}

func (p *program) Start(_ service.Service) error {
	go func() {
		p.errCh <- app.Run(p.params)
	}()
	return nil
}

func (p *program) Stop(_ service.Service) error {
	return nil
}

func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service <install|uninstall|start|stop|run>",
		Short: "Manage wirereport as a system service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")

			svcConfig := &service.Config{
				Name:        "wirereport",
				DisplayName: "wirereport",
				Description: "Incremental AI news reports from chat channels",
				Arguments:   []string{"service", "run"},
			}
			if cfgPath != "" {
				svcConfig.Arguments = append(svcConfig.Arguments, "--config", cfgPath)
			}

			prg := &program{
				params: runParams(cmd),
				errCh:  make(chan error, 1),
			}
			svc, err := service.New(prg, svcConfig)
			if err != nil {
				return err
			}

			switch args[0] {
			case "run":
				if err := svc.Run(); err != nil {
					return err
				}
				select {
				case err := <-prg.errCh:
					return err
				default:
					return nil
				}
			case "install", "uninstall", "start", "stop":
				if err := service.Control(svc, args[0]); err != nil {
					return err
				}
				fmt.Printf("Service %s: OK\n", args[0])
				return nil
			default:
				return fmt.Errorf("unknown service action %q", args[0])
			}
		},
	}
	return cmd
}
