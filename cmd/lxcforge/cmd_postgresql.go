package main

import (
	"github.com/spf13/cobra"

	"lxcforge/internal/recipe"
)

// postgresqlCmd provisions a PostgreSQL container.
var postgresqlCmd = &cobra.Command{
	Use:   "postgresql [prefix]",
	Short: "Create and start an LXC container running a PostgreSQL database",
	Long: `Creates a Debian container named <prefix>_postgresql_<codename>, installs
PostgreSQL, opens access from the container's /24 and creates a database
plus owner role. The connection details, including the generated
password, are printed as JSON.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRecipe(recipe.KindPostgres),
}
