package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/chazu/spool/pkg/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func init() {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the spool configuration",
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		Run:   runConfigInit,
	}
	initCmd.Flags().Bool("force", false, "Overwrite an existing file")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		Run:   runConfigShow,
	}

	cmd.AddCommand(initCmd, show)
	RootCmd.AddCommand(cmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	force, _ := cmd.Flags().GetBool("force")
	path := config.DefaultFile
	if len(args) == 1 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil && !force {
		exitErr("config init", fmt.Errorf("%s exists (use --force to overwrite)", path))
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		exitErr("config init", err)
	}
	if err := config.Save(path, config.Default()); err != nil {
		exitErr("config init", err)
	}
	fmt.Printf("wrote %s\n", path)
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		exitErr("encode", err)
	}
	fmt.Print(string(b))
}
