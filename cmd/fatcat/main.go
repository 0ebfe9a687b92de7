// Command fatcat prints the contents of a file from a FAT16/FAT32 image.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blockfat/fat"
)

func main() {
	root := &cobra.Command{
		Use:          "fatcat <image> <path>",
		Short:        "print a file's contents from a FAT16/FAT32 image",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE:         run,
	}
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	ctx, err := fat.Mount(fat.NewFileDevice(f))
	if err != nil {
		return fmt.Errorf("mount: %w", err)
	}
	defer ctx.Unmount()

	fd, err := ctx.Open(args[1], fat.ORDONLY)
	if err != nil {
		return fmt.Errorf("open %s: %w", args[1], err)
	}
	defer ctx.Close(fd)

	buf := make([]byte, 4096)
	for {
		n, err := ctx.Read(fd, buf)
		if n > 0 {
			if _, werr := cmd.OutOrStdout().Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
}
