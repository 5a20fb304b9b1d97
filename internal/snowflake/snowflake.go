// Package snowflake converts between discordgo's string IDs and the int64
// keys the store uses.
package snowflake

import "strconv"

// Parse returns 0 for anything that is not a plain decimal ID.
func Parse(s string) int64 {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func Format(id int64) string {
	return strconv.FormatInt(id, 10)
}
