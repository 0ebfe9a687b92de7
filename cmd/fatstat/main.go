// Command fatstat prints metadata for a file or directory on a FAT16/FAT32
// image, along with the image's decoded partition table.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blockfat/fat"
)

func main() {
	root := &cobra.Command{
		Use:          "fatstat <image> <path>",
		Short:        "print file and partition metadata from a FAT16/FAT32 image",
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

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "active partition: %d\n", ctx.ActivePartition())
	for i, p := range ctx.Partitions() {
		if p.Type == fat.TypeUnknown {
			continue
		}
		fmt.Fprintf(out, "  [%d] %s first_block=%d blocks_per_cluster=%d\n",
			i, p.Type, p.FirstBlock, p.BlocksPerCluster)
	}

	info, err := ctx.Stat(args[1])
	if err != nil {
		return fmt.Errorf("stat %s: %w", args[1], err)
	}
	fmt.Fprintf(out, "%s size=%d dir=%v mtime=%s\n", args[1], info.Size, info.IsDir(), info.ModTime)
	return nil
}
