package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fastbreaklabs/scoutd/internal/vectorstore"
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List collections and their document counts",
	RunE:  runCollections,
}

func init() {
	rootCmd.AddCommand(collectionsCmd)
}

func runCollections(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close(ctx)

	names, err := app.store.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("listing collections: %w", err)
	}
	sort.Strings(names)

	infos := make([]*vectorstore.CollectionInfo, 0, len(names))
	for _, name := range names {
		info, err := app.store.GetCollectionInfo(ctx, name)
		if err != nil {
			return fmt.Errorf("describing collection %s: %w", name, err)
		}
		infos = append(infos, info)
	}

	printCollections(cmd.OutOrStdout(), infos)
	return nil
}

func printCollections(w io.Writer, infos []*vectorstore.CollectionInfo) {
	if len(infos) == 0 {
		fmt.Fprintln(w, "No collections.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDOCUMENTS\tVECTOR SIZE")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", info.Name, info.PointCount, info.VectorSize)
	}
	_ = tw.Flush()
}
