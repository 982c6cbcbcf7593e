package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/structdraw/backend/internal/export"
	"github.com/structdraw/backend/internal/history"
	"github.com/structdraw/backend/internal/models"
)

var exportOpts = struct {
	fileName     string
	format       string
	outDir       string
	image        string
	historyDir   string
	noDimensions bool
	noWeights    bool
	noMaterials  bool
	noNotes      bool
}{}

var exportCmd = &cobra.Command{
	Use:   "export [fixture.yaml]",
	Short: "Write the bill of materials to an Excel or PDF file",
	Long: `Export every row of the bill of materials. Type and size are always
written; the --no-* flags drop the other column groups.

With --history the export is also recorded in the export history database.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	f := exportCmd.Flags()
	f.StringVarP(&exportOpts.fileName, "name", "n", models.DefaultExportFileName, "output file name without extension")
	f.StringVarP(&exportOpts.format, "format", "f", string(models.ExportFormatExcel), "output format (excel or pdf)")
	f.StringVarP(&exportOpts.outDir, "out", "o", ".", "output directory")
	f.StringVar(&exportOpts.image, "image", "", "drawing to embed in the export")
	f.StringVar(&exportOpts.historyDir, "history", "", "record the export in this history directory")
	f.BoolVar(&exportOpts.noDimensions, "no-dimensions", false, "omit length and quantity")
	f.BoolVar(&exportOpts.noWeights, "no-weights", false, "omit weights")
	f.BoolVar(&exportOpts.noMaterials, "no-materials", false, "omit materials")
	f.BoolVar(&exportOpts.noNotes, "no-notes", false, "omit notes")
}

func runExport(cmd *cobra.Command, args []string) error {
	result, err := loadFixture(fixtureArg(args))
	if err != nil {
		return err
	}

	cfg := models.ExportConfig{
		FileName:          exportOpts.fileName,
		Format:            models.ExportFormat(strings.ToLower(exportOpts.format)),
		IncludeImages:     exportOpts.image != "",
		IncludeDimensions: !exportOpts.noDimensions,
		IncludeWeights:    !exportOpts.noWeights,
		IncludeMaterials:  !exportOpts.noMaterials,
		IncludeNotes:      !exportOpts.noNotes,
	}

	var recorder export.HistoryRecorder
	if exportOpts.historyDir != "" {
		store, err := history.NewStore(exportOpts.historyDir)
		if err != nil {
			return fmt.Errorf("opening history: %w", err)
		}
		defer store.Close()
		recorder = store
	}

	req := export.Request{
		WorkspaceID: "bomctl",
		Rows:        result.Rows,
		Config:      cfg,
	}
	if exportOpts.image != "" {
		img, err := readImage(exportOpts.image)
		if err != nil {
			return err
		}
		req.Image = img
	}

	service := export.NewService(export.NewRegistry(), recorder)
	artifact, err := service.RequestExport(context.Background(), req)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(exportOpts.outDir, 0755); err != nil {
		return err
	}
	path := filepath.Join(exportOpts.outDir, artifact.FileName)
	if err := os.WriteFile(path, artifact.Data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\nWrote %d rows to %s\n", artifact.Notice, len(artifact.Records), path)
	return nil
}

func readImage(path string) (*export.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	return &export.Image{
		Name:     filepath.Base(path),
		MIMEType: http.DetectContentType(data),
		Data:     data,
	}, nil
}
