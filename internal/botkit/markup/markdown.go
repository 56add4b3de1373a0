// Package markup escapes text for Telegram MarkdownV2 messages.
package markup

import "strings"

var (
	markdownReplacer = strings.NewReplacer(
		`\`, `\\`,
		"_", `\_`,
		"*", `\*`,
		"[", `\[`,
		"]", `\]`,
		"(", `\(`,
		")", `\)`,
		"~", `\~`,
		"`", "\\`",
		">", `\>`,
		"#", `\#`,
		"+", `\+`,
		"-", `\-`,
		"=", `\=`,
		"|", `\|`,
		"{", `\{`,
		"}", `\}`,
		".", `\.`,
		"!", `\!`,
	)

	linkReplacer = strings.NewReplacer(`\`, `\\`, ")", `\)`)
)

func EscapeForMarkdown(src string) string {
	return markdownReplacer.Replace(src)
}

// EscapeLinkURL escapes the url part of an inline link.
func EscapeLinkURL(src string) string {
	return linkReplacer.Replace(src)
}
