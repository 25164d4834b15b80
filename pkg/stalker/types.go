package stalker

import (
	"encoding/json"
	"math/rand"
	"strconv"
)

// envelope is the outer wrapper every portal response carries.
type envelope struct {
	Status string          `json:"status"`
	JS     json.RawMessage `json:"js"`
}

// channelPage is the wrapped listing shape used by get_ordered_list.
type channelPage struct {
	Data []Channel `json:"data"`
}

// linkResponse is the create_link payload.
type linkResponse struct {
	Cmd string `json:"cmd"`
}

// Genre is a portal content category.
type Genre struct {
	ID    FlexString `json:"id"`
	Title string     `json:"title"`
}

// Channel is a portal channel entry. The id arrives under "id" or "ch_id"
// depending on the deployment, as either a number or a string.
type Channel struct {
	RealID *FlexInt   `json:"id"`
	ChID   *FlexInt   `json:"ch_id"`
	Name   string     `json:"name"`
	Number FlexString `json:"number"`
	Logo   string     `json:"logo"`
	Cmd    string     `json:"cmd"`
}

// ID returns the channel identifier, preferring "id" over "ch_id". When the
// portal sends neither field a random identifier in [100000, 999999] is
// assigned so the channel stays addressable for the session.
func (c *Channel) ID() int64 {
	if c.RealID != nil {
		return c.RealID.Int()
	}
	if c.ChID != nil {
		return c.ChID.Int()
	}
	return int64(rand.Intn(900000) + 100000)
}

// FlexInt handles JSON numbers that may be strings or integers.
type FlexInt int64

// Int returns the integer value.
func (f FlexInt) Int() int64 {
	return int64(f)
}

// UnmarshalJSON handles both string and number JSON values.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexInt(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = FlexInt(n)
		return nil
	}

	*f = 0
	return nil
}

// FlexString handles JSON values that may be strings or numbers.
type FlexString string

// String returns the string value.
func (f FlexString) String() string {
	return string(f)
}

// UnmarshalJSON handles both string and number JSON values.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}

	*f = ""
	return nil
}
