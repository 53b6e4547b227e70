package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"greetcard/internal/greeting"
	"greetcard/internal/sharelink"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "linktool",
		Short:         "Encode greeting documents into share links and back",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newEncodeCmd(), newDecodeCmd())
	return root
}

func newEncodeCmd() *cobra.Command {
	var base string
	cmd := &cobra.Command{
		Use:   "encode [file|-]",
		Short: "Read a document JSON and print its share query or URL",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			raw, err := readInput(cmd.InOrStdin(), path)
			if err != nil {
				return err
			}
			doc, err := parseDocument(raw)
			if err != nil {
				return err
			}

			out := sharelink.EncodeQuery(doc)
			if base != "" {
				if out, err = sharelink.BuildURL(base, doc); err != nil {
					return err
				}
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVarP(&base, "base", "b", "", "viewer page URL; print a full link instead of a bare query")
	return cmd
}

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <url-or-query>",
		Short: "Print the document carried by a share link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := sharelink.ParseURL(args[0])
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := json.Indent(&buf, sharelink.MarshalDocument(doc), "", "  "); err != nil {
				return err
			}
			buf.WriteByte('\n')
			_, err = cmd.OutOrStdout().Write(buf.Bytes())
			return err
		},
	}
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// parseDocument 要求输入是 JSON 对象，字段级问题按分享链接的规则降级。
func parseDocument(raw []byte) (greeting.Document, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return greeting.Document{}, fmt.Errorf("document must be a JSON object: %w", err)
	}
	if fields == nil {
		return greeting.Document{}, errors.New("document must be a JSON object")
	}
	return sharelink.DecodeDocumentJSON(raw), nil
}
