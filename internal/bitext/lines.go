package bitext

import "strings"

// SplitLines 按通用行边界切分文本：\n、\r\n、\r、\v、\f、\x1c、\x1d、\x1e、U+0085、U+2028、U+2029。
// 行尾终止符不产生额外空行；空文本返回 nil。
func SplitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); {
		n := breakLen(s[i:])
		if n == 0 {
			i++
			continue
		}
		out = append(out, s[start:i])
		i += n
		start = i
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

// breakLen 返回 s 开头行终止符的字节长度；不是终止符返回 0。
func breakLen(s string) int {
	switch s[0] {
	case '\n', '\v', '\f', '\x1c', '\x1d', '\x1e':
		return 1
	case '\r':
		if len(s) > 1 && s[1] == '\n' {
			return 2
		}
		return 1
	case 0xc2: // U+0085
		if len(s) > 1 && s[1] == 0x85 {
			return 2
		}
	case 0xe2: // U+2028 / U+2029
		if strings.HasPrefix(s, "\u2028") || strings.HasPrefix(s, "\u2029") {
			return 3
		}
	}
	return 0
}
