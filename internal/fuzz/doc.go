// Package fuzztests houses Go fuzz harnesses for the directive parser and
// the template rewriter. Their goal is to guard against panics and hangs on
// arbitrary inputs.
//
// Назначение: прогонять байты через go/parser, directive.Collect и
// rewrite.Rewriter.
//
// Не делает: запись файлов, выполнение CLI.
package fuzztests
