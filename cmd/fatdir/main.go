// Command fatdir lists a directory from a FAT16/FAT32 image.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blockfat/fat"
)

func main() {
	path := "/"
	root := &cobra.Command{
		Use:          "fatdir <image> [path]",
		Short:        "list a directory from a FAT16/FAT32 image",
		Args:         cobra.RangeArgs(1, 2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 2 {
				path = args[1]
			}
			return run(cmd, args[0], path)
		},
	}
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, image, path string) error {
	f, err := os.Open(image)
	if err != nil {
		return err
	}
	defer f.Close()

	ctx, err := fat.Mount(fat.NewFileDevice(f))
	if err != nil {
		return fmt.Errorf("mount: %w", err)
	}
	defer ctx.Unmount()

	entries, err := ctx.ReadDir(path)
	if err != nil {
		return fmt.Errorf("readdir %s: %w", path, err)
	}
	for _, e := range entries {
		kind := "-"
		if e.IsDir {
			kind = "d"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %10d  %s\n", kind, e.Size, e.Name)
	}
	return nil
}
