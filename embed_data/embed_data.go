// Package embed_data carries the static assets compiled into the binary:
// tree-sitter query sets per language, prompt templates and the per-model
// price table used for cost estimation.
package embed_data

import _ "embed"

//go:embed queries/go.json
var GoQuery []byte

//go:embed queries/python.json
var PythonQuery []byte

//go:embed queries/java.json
var JavaQuery []byte

//go:embed queries/javascript.json
var JavascriptQuery []byte

//go:embed queries/typescript.json
var TypescriptQuery []byte

//go:embed queries/csharp.json
var CSharpQuery []byte

//go:embed prompts/file_summary.txt
var FileSummaryPrompt []byte

//go:embed prompts/document_system.txt
var DocumentSystemPrompt []byte

//go:embed models_details.json
var ModelDetails []byte
