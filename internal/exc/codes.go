// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package exc

const (
	CodeUnknownFatal                  = "A0000"
	CodeFileNotFound                  = "A0001"
	CodeUnsuportedFileSystemOperation = "A0002"
	CodePermissionDenied              = "A0003"
	CodeUnsupportedFileFormat         = "A0004"
	CodeUnexpectedEOF                 = "A0005"
	CodeInvalidNumber                 = "A0006"
	CodeUnexpectedToken               = "A0007"
	CodeUnterminatedString            = "A0008"
	CodeUnterminatedComment           = "A0009"
	CodeInvalidJSON                   = "A0010"
	CodeBacktrackExhausted            = "A0011"
	CodeUnsupportedAnnotation         = "A0012"
	CodeInvalidImportKind             = "A0013"
	CodeDuplicateMessage              = "A0014"
	CodeImportFailed                  = "A0015"
)

const (
	CodeEOF = "_EOF_"
)

var (
	defaultNonFatal = map[string]bool{}
)
