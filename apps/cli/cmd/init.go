package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jcall-dev/jcall/packages/callfile"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter callfile",
	Long: `Create a starter jcall.yaml in the current directory with an
example call and an example mock route.

Examples:
  jcall init
  jcall init --force`,
	Args: cobra.NoArgs,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite an existing callfile")
}

const starterCallfile = `# jcall callfile
calls:
  - name: get-user
    url: ${BASE_URL}/users/1
    method: GET
    timeoutMs: 5000
    capture:
      id: body.id

  - name: create-user
    url: ${BASE_URL}/users
    method: POST
    body:
      name: ada
      email: ada@example.com
    validStatusCodes: [201]
    headers:
      - key: X-Request-Source
        value: jcall

mock:
  - method: GET
    path: /users/:id
    status: 200
    body: '{"id": "{id}", "name": "ada"}'
`

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	path := filepath.Join(cwd, callfile.Filenames[0])
	if !forceInit {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("file already exists: %s (use --force to overwrite)", path)
		}
	}

	if err := os.WriteFile(path, []byte(starterCallfile), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
	fmt.Fprintln(cmd.OutOrStdout(), "Try: BASE_URL=https://api.example.com jcall send get-user")
	return nil
}
