// Package dump implements the dump command, which writes a session dump of
// a fresh bootstrap session. Useful for verifying the dump path and format
// without waiting for a crash.
package dump

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/echemtools/cellcycle-go/internal/conf"
	"github.com/echemtools/cellcycle-go/internal/session"
)

// Command creates the dump command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Write a session dump file",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := session.New()
			path, err := s.WriteDump(settings.Session.DumpPath, "manual")
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
}
