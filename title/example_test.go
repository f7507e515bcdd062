package title_test

import (
	"fmt"

	"dqx0.com/go/urltitle/title"
)

func ExampleFormat() {
	fmt.Println(title.Format("News &raquo; World &amp; more"))
	// Output: Title: "News » World &amp; more"
}
