package main

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"

	"github.com/olekukonko/tablewriter"
	"github.com/richinsley/toygraph/api"
	"github.com/urfave/cli"
)

// List prints a table of the shader descriptions in the shader directory.
func List(ctx *cli.Context) error {
	setupLogging(ctx)

	files, err := shaderFiles(ctx.GlobalString("shaders"), nil)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	writeCatalog(&buf, files, api.LoadFile)
	fmt.Fprint(ctx.App.Writer, buf.String())
	return nil
}

// writeCatalog renders one row per file. Files that fail to load are listed
// with the error in place of the shader name.
func writeCatalog(w io.Writer, files []string, load func(string) (*api.Shader, error)) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"File", "Name", "Author", "ID", "Buffers", "Image", "Common"})

	var failed int
	for _, file := range files {
		sh, err := load(file)
		if err != nil {
			failed++
			table.Append([]string{filepath.Base(file), "error: " + err.Error(), "", "", "", "", ""})
			continue
		}
		table.Append([]string{
			filepath.Base(file),
			sh.Info.Name,
			sh.Info.Username,
			sh.Info.ID,
			fmt.Sprintf("%d", sh.CountPasses(api.PassBuffer)),
			fmt.Sprintf("%d", sh.CountPasses(api.PassImage)),
			fmt.Sprintf("%t", sh.CountPasses(api.PassCommon) > 0),
		})
	}
	table.SetFooter([]string{"", "", "", "", "", "TOTAL", fmt.Sprintf("%d (%d failed)", len(files), failed)})
	table.Render()
}
