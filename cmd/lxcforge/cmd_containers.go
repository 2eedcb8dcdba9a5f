// Container lifecycle commands: listing and destroying provisioned
// containers.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lxcforge/internal/config"
	"lxcforge/internal/container"
)

// listCmd lists defined containers
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List defined LXC containers",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

// destroyCmd removes a container
var destroyCmd = &cobra.Command{
	Use:   "destroy <name>",
	Short: "Stop and destroy a container",
	Args:  cobra.ExactArgs(1),
	RunE:  runDestroy,
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	infos := container.NewManager(cfg.LXCPath).List()
	if len(infos) == 0 {
		fmt.Println("No containers defined.")
		return nil
	}

	for _, info := range infos {
		if info.Address != "" {
			fmt.Printf("%-32s %-10s %s\n", info.Name, info.State, info.Address)
		} else {
			fmt.Printf("%-32s %s\n", info.Name, info.State)
		}
	}
	return nil
}

func runDestroy(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	name := args[0]
	if err := container.NewManager(cfg.LXCPath).Destroy(name); err != nil {
		return fmt.Errorf("failed to destroy %s: %w", name, err)
	}
	fmt.Printf("Destroyed container %s.\n", name)
	return nil
}
