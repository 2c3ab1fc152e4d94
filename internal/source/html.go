// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// htmlConverter turns a saved curriculum page into markdown lines. The table
// plugin keeps content tables as pipe rows so table dialects can read them.
type htmlConverter struct {
	conv *converter.Converter
}

func newHTMLConverter() *htmlConverter {
	return &htmlConverter{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
			// Escaping would turn "1. Intro" into "1\. Intro" and hide
			// outline codes from the recognizer.
			converter.WithEscapeMode(converter.EscapeModeDisabled),
		),
	}
}

func (h *htmlConverter) convert(html string) (string, error) {
	return h.conv.ConvertString(html)
}
