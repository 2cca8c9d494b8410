// Package luhn implements the Luhn (mod 10) checksum used on card numbers.
package luhn

import "fmt"

// CheckDigit returns the digit that, appended to digits, yields a Luhn-valid number.
// digits must contain only decimal digits; anything else is a programming error and panics.
func CheckDigit(digits string) int {
	// The appended digit becomes the rightmost one, so doubling starts at the
	// current last digit.
	sum := 0
	double := true
	for i := len(digits) - 1; i >= 0; i-- {
		c := digits[i]
		if c < '0' || c > '9' {
			panic(fmt.Sprintf("luhn: non-digit %q in %q", c, digits))
		}
		sum += weigh(int(c-'0'), double)
		double = !double
	}
	return (10 - sum%10) % 10
}

// Valid reports whether number passes the Luhn check. Empty input and input
// containing anything other than decimal digits is invalid.
func Valid(number string) bool {
	if number == "" {
		return false
	}
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		sum += weigh(int(c-'0'), double)
		double = !double
	}
	return sum%10 == 0
}

func weigh(d int, double bool) int {
	if !double {
		return d
	}
	d *= 2
	if d > 9 {
		d -= 9
	}
	return d
}
