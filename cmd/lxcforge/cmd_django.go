package main

import (
	"github.com/spf13/cobra"

	"lxcforge/internal/recipe"
)

// djangoCmd provisions a Django container.
var djangoCmd = &cobra.Command{
	Use:   "django [prefix]",
	Short: "Create and start an LXC container running a barebones Django site",
	Long: `Creates a Debian container named <prefix>_django_<codename> with a
skeleton Django project owned by <prefix>_user, served by nginx through
the uWSGI emperor on port 80. The site details, including the generated
user password, are printed as JSON.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRecipe(recipe.KindDjango),
}
