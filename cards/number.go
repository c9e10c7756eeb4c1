package cards

import (
	"crypto/md5"
	"encoding/hex"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/go-card-portal/internal/utils"
)

// issuerID is the fictional bank identifier embedded in every card number
const issuerID = "53280"

// majorIndustry maps a card type to the leading digit of its number
var majorIndustry = map[Type]string{
	TypePersonal: "4",
	TypeBusiness: "5",
	TypeTravel:   "3",
	TypeShopping: "6",
}

var expiryYears = map[Category]int{
	CategoryClassic:  3,
	CategoryGold:     4,
	CategoryPlatinum: 5,
	CategoryDiamond:  5,
}

// GenerateNumber returns a random 16 digit number for cardType that passes the Luhn check
func GenerateNumber(cardType Type) string {
	mii, ok := majorIndustry[cardType]
	if !ok {
		mii = majorIndustry[TypePersonal]
	}

	var b strings.Builder
	b.WriteString(mii)
	b.WriteString(issuerID)
	for range 9 {
		b.WriteByte(byte('0' + rand.IntN(10)))
	}
	partial := b.String()
	return partial + strconv.Itoa(LuhnCheckDigit(partial))
}

// LuhnCheckDigit returns the digit that makes partial+digit a valid Luhn number
func LuhnCheckDigit(partial string) int {
	for d := 0; d < 10; d++ {
		if luhnSum(partial+strconv.Itoa(d))%10 == 0 {
			return d
		}
	}
	return 0
}

// ValidNumber reports whether number is all digits and passes the Luhn check
func ValidNumber(number string) bool {
	if number == "" {
		return false
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return false
		}
	}
	return luhnSum(number)%10 == 0
}

func luhnSum(number string) int {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		d := int(number[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum
}

// MaskNumber hides all but the last four digits
func MaskNumber(number string) string {
	if len(number) < 4 {
		return "****"
	}
	return "**** **** **** " + number[len(number)-4:]
}

// GenerateCVV derives a three digit security code from the number and expiry month
func GenerateCVV(number string, expires time.Time) string {
	sum := md5.Sum([]byte(number + expires.Format("0106")))
	prefix := hex.EncodeToString(sum[:])[:6]
	n, _ := strconv.ParseInt(prefix, 16, 64)
	digits := strconv.FormatInt(n, 10)
	if len(digits) > 3 {
		digits = digits[len(digits)-3:]
	}
	return strings.Repeat("0", 3-len(digits)) + digits
}

// CategoryForLimit picks the card tier for a credit limit
func CategoryForLimit(limit utils.Decimal) Category {
	switch {
	case limit.Cmp(utils.NewDecimal(10000)) >= 0:
		return CategoryDiamond
	case limit.Cmp(utils.NewDecimal(5000)) >= 0:
		return CategoryPlatinum
	case limit.Cmp(utils.NewDecimal(2000)) >= 0:
		return CategoryGold
	default:
		return CategoryClassic
	}
}

// ExpiryFor returns the expiry date of a card of category issued on created
func ExpiryFor(category Category, created time.Time) time.Time {
	years, ok := expiryYears[category]
	if !ok {
		years = expiryYears[CategoryClassic]
	}
	return created.AddDate(years, 0, 0)
}
