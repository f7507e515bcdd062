// Package httpx is a minimal, line-oriented HTTP/1 client for fetching a
// single page: one GET per connection, the response read until the peer
// closes, and 301/302 redirects followed up to a fixed hop count.
//
// It deliberately does less than net/http. There is no TLS, no keep-alive,
// no cookies and no chunked decoding. A response is returned as Lines, the
// raw text lines in the order they arrived, and headers are looked up by
// scanning those lines.
//
// Requests go either directly to the host on port 80 (HTTP/1.1 with Host
// and Connection: close) or through a Relay, an upstream HTTP proxy
// (HTTP/1.0 with an absolute URL as the target).
//
// Quick start:
//
//	c := &httpx.Client{Transport: httpx.NewTransport()}
//	res, err := c.Fetch(ctx, "http://example.com/")
//	if err != nil { log.Fatal(err) }
//	ct, _ := res.Lines.Header("Content-Type")
//	fmt.Println(ct)
//
// Every error matches one of ErrAddress, ErrDecode, ErrTransport,
// ErrProtocol, ErrRedirect or ErrContent with errors.Is.
package httpx
