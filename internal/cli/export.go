// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"go.uber.org/zap"

	"github.com/jeranaias/tripplan-tui/internal/export"
	"github.com/jeranaias/tripplan-tui/internal/itinerary"
)

// exportDocument writes doc in the given format ("" for the configured
// one) and returns the file path.
func (a *app) exportDocument(doc *itinerary.Document, format string) (string, error) {
	if format == "" {
		format = a.cfg.Export.Format
	}

	opts := export.DefaultOptions()
	opts.OutputDir = a.cfg.Export.Dir
	opts.OpenAfterExport = a.cfg.Export.Open
	opts.Theme = a.cfg.UI.Theme

	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		return "", err
	}
	path, err := export.ToFile(doc, exporter, opts)
	if err != nil {
		a.logger.Warn("export failed", zap.String("format", format), zap.Error(err))
		return "", err
	}
	a.logger.Info("itinerary exported", zap.String("path", path), zap.String("mime", exporter.MimeType()))
	return path, nil
}
