package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskContact(t *testing.T) {
	t.Parallel()

	post := &Post{
		ContactName:  "Kishori",
		ContactPhone: "9841234567",
		ContactEmail: "kishori@example.com",
	}
	post.MaskContact()

	assert.Equal(t, "Ki*****", post.ContactName)
	assert.Equal(t, "984*******", post.ContactPhone)
	assert.Equal(t, "k******@example.com", post.ContactEmail)
	assert.NotContains(t, post.ContactPhone, "1234567")
}

func TestMaskContactShortValues(t *testing.T) {
	t.Parallel()

	post := &Post{ContactName: "K", ContactPhone: "42", ContactEmail: "no-at-sign"}
	post.MaskContact()

	assert.Equal(t, "*", post.ContactName)
	assert.Equal(t, "**", post.ContactPhone)
	// Without an @ the whole value is treated as a local part.
	assert.True(t, strings.HasPrefix(post.ContactEmail, "n"))
	assert.NotContains(t, post.ContactEmail, "o-at-sign")
}

func TestPostIsPromoted(t *testing.T) {
	t.Parallel()

	assert.False(t, (&Post{}).IsPromoted())
	assert.False(t, (&Post{HomepagePaymentStatus: HomepagePaymentPaid}).IsPromoted())
	assert.True(t, (&Post{HomepagePaymentStatus: HomepagePaymentApproved}).IsPromoted())
}
