package review

import "fmt"

func reviewPrompt(code, language string) string {
	return fmt.Sprintf(`You are an expert code reviewer. Review the following %[1]s code thoroughly.

**Code to review:**
%[2]s

**Give detailed feedback on:**
1. **Correctness**: bugs, logic errors and unhandled edge cases
2. **Performance**: inefficiencies and optimisation opportunities
3. **Style**: readability, naming and idiomatic %[1]s
4. **Security**: vulnerabilities and unsafe patterns
5. **Algorithm**: better algorithms or data structures where they apply

Organise the answer under clear headings with concrete, actionable suggestions.`, language, fence(code))
}

func docstringPrompt(code, language string) string {
	return fmt.Sprintf(`Write professional documentation for the following %[1]s code.

**Code:**
%[2]s

**Requirements:**
- Follow the documentation conventions of %[1]s (PEP 257 for Python, JSDoc for JavaScript, GoDoc for Go, and so on)
- Describe every function and class
- Document each parameter with its type
- Document return values
- Add a short usage example when it helps
- Keep it clear and concise

Return ONLY the documentation, not the code.`, language, fence(code))
}

func fence(code string) string {
	return "```\n" + code + "\n```"
}
