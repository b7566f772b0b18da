package cmd

import (
	"context"
	"fmt"
	"os"

	internalApp "github.com/haierkeys/note-chain-service/internal/app"
	"github.com/haierkeys/note-chain-service/internal/upgrade"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Audit every note version chain once and exit // 检查所有笔记版本链后退出",
	Long: `Audit every note version chain once and exit.

The audit is read only: duplicate or missing version numbers, dangling or stale
current pointers and orphan versions are reported, nothing is repaired.
The exit code is 2 when issues were found.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")

		appConfig, lg, db, err := openForCommand(configPath)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		ctx := context.Background()
		if err := upgrade.Execute(ctx, db, lg, internalApp.Version); err != nil {
			closeDB(db)
			fmt.Printf("Upgrade failed: %v\n", err)
			os.Exit(1)
		}

		a, err := internalApp.NewApp(appConfig, lg, db, internalApp.WithRegisterer(nil))
		if err != nil {
			closeDB(db)
			fmt.Printf("Failed to create app container: %v\n", err)
			os.Exit(1)
		}

		issues, err := a.NoteService.CheckIntegrity(ctx)
		_ = a.Shutdown(ctx)
		if err != nil {
			fmt.Printf("Integrity check failed: %v\n", err)
			os.Exit(1)
		}

		if len(issues) == 0 {
			fmt.Println("All version chains are consistent.")
			return
		}

		for _, issue := range issues {
			fmt.Println(issue.String())
		}
		fmt.Printf("%d issue(s) found.\n", len(issues))
		os.Exit(2)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringP("config", "c", "", "config file path")
}
