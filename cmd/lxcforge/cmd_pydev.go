package main

import (
	"github.com/spf13/cobra"

	"lxcforge/internal/recipe"
)

// pydevCmd provisions a PyDev IDE container.
var pydevCmd = &cobra.Command{
	Use:   "pydev [prefix]",
	Short: "Create an LXC container with the PyDev IDE installed",
	Long: `Creates a Debian container named <prefix>_pydev_<codename> with Eclipse
and the PyDev feature set installed for X11 forwarding, then stops it.
A start-pydev launcher script is written under ~/.local/share/lxc/ on
the host; the container details are printed as JSON.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRecipe(recipe.KindPyDev),
}
