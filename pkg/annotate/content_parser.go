package annotate

import (
	"fmt"
	"strconv"
	"strings"
)

// ContentOp 内容流中的一个操作符及其操作数
type ContentOp struct {
	Operator string
	Operands []string
}

// Float 返回第 i 个操作数的数值
func (o ContentOp) Float(i int) (float64, error) {
	if i < 0 || i >= len(o.Operands) {
		return 0, fmt.Errorf("operator %s: operand %d out of range", o.Operator, i)
	}
	return strconv.ParseFloat(o.Operands[i], 64)
}

// Floats 返回全部数值操作数
func (o ContentOp) Floats() ([]float64, error) {
	out := make([]float64, len(o.Operands))
	for i := range o.Operands {
		v, err := o.Float(i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (o ContentOp) String() string {
	if len(o.Operands) == 0 {
		return o.Operator
	}
	return strings.Join(o.Operands, " ") + " " + o.Operator
}

// ParseContentStream 解析 PDF 内容流为操作符序列
func ParseContentStream(stream []byte) ([]ContentOp, error) {
	return parseTokens(tokenize(string(stream)))
}

// tokenize 将内容流分词。字符串、十六进制串和数组作为单个 token
func tokenize(content string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for i := 0; i < len(content); i++ {
		ch := content[i]
		switch ch {
		case '%':
			flush()
			for i < len(content) && content[i] != '\n' && content[i] != '\r' {
				i++
			}
		case '(':
			flush()
			depth := 0
			for ; i < len(content); i++ {
				c := content[i]
				current.WriteByte(c)
				if c == '\\' && i+1 < len(content) {
					i++
					current.WriteByte(content[i])
					continue
				}
				if c == '(' {
					depth++
				} else if c == ')' {
					depth--
					if depth == 0 {
						break
					}
				}
			}
			flush()
		case '<':
			flush()
			if i+1 < len(content) && content[i+1] == '<' {
				tokens = append(tokens, "<<")
				i++
				continue
			}
			for ; i < len(content) && content[i] != '>'; i++ {
				current.WriteByte(content[i])
			}
			current.WriteByte('>')
			flush()
		case '>':
			flush()
			if i+1 < len(content) && content[i+1] == '>' {
				tokens = append(tokens, ">>")
				i++
			}
		case '[', ']':
			flush()
			tokens = append(tokens, string(ch))
		case ' ', '\t', '\r', '\n', '\f', 0:
			flush()
		case '/':
			flush()
			current.WriteByte(ch)
		default:
			current.WriteByte(ch)
		}
	}
	flush()
	return tokens
}

// parseTokens 将 token 分组为操作符。
// 操作数是数字、名字、字符串或数组；其余 token 视为操作符。
func parseTokens(tokens []string) ([]ContentOp, error) {
	var ops []ContentOp
	var stack []string
	depth := 0

	for _, tok := range tokens {
		switch {
		case tok == "[" || tok == "<<":
			depth++
			stack = append(stack, tok)
		case tok == "]" || tok == ">>":
			if depth == 0 {
				return nil, fmt.Errorf("unbalanced %q in content stream", tok)
			}
			depth--
			stack = append(stack, tok)
		case depth > 0 || isOperand(tok):
			stack = append(stack, tok)
		default:
			ops = append(ops, ContentOp{Operator: tok, Operands: stack})
			stack = nil
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unterminated array or dictionary in content stream")
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("dangling operands at end of content stream: %v", stack)
	}
	return ops, nil
}

func isOperand(tok string) bool {
	switch tok[0] {
	case '/', '(', '<':
		return true
	}
	if tok == "true" || tok == "false" || tok == "null" {
		return true
	}
	_, err := strconv.ParseFloat(tok, 64)
	return err == nil
}
