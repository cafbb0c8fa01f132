package mail

import "fmt"

// OTPMessage renders the one-time-code email.
func OTPMessage(from, to, code string, ttlSeconds int) Message {
	html := fmt.Sprintf(`<html><body>
<p>Your verification code is:</p>
<h2>%s</h2>
<p>The code expires in %d seconds. If you did not request it, ignore this email.</p>
</body></html>`, code, ttlSeconds)

	return Message{
		From:    from,
		To:      to,
		Subject: "Your verification code",
		HTML:    html,
	}
}
