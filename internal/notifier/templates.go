package notifier

import (
	"fmt"
	"html"

	"github.com/feedback-hub/helpdesk/internal/domain"
)

// Email copy lives here so the notification service stays free of markup.
// Bodies are small fragments; user-supplied values are escaped.

func TicketCreatedEmail(ticket *domain.Ticket) (subject, body string) {
	subject = fmt.Sprintf("Ticket received: %s", ticket.Title)
	body = fmt.Sprintf(
		`<h2>We received your ticket</h2>
<p>Your ticket <strong>%s</strong> has been created and will be handled according to its <strong>%s</strong> priority.</p>
<p>We will keep you posted on any updates.</p>`,
		html.EscapeString(ticket.Title), ticket.Priority)
	return subject, body
}

func TicketStatusChangedEmail(ticket *domain.Ticket, oldStatus, newStatus domain.TicketStatus) (subject, body string) {
	subject = fmt.Sprintf("Ticket update: %s", ticket.Title)
	body = fmt.Sprintf(
		`<h2>Your ticket status changed</h2>
<p>Ticket <strong>%s</strong> moved from <strong>%s</strong> to <strong>%s</strong>.</p>`,
		html.EscapeString(ticket.Title), oldStatus, newStatus)
	return subject, body
}

func TicketCommentEmail(ticket *domain.Ticket, author *domain.User, comment *domain.TicketComment) (subject, body string) {
	subject = fmt.Sprintf("New comment on: %s", ticket.Title)
	body = fmt.Sprintf(
		`<h2>New comment on your ticket</h2>
<p><strong>%s</strong> commented on ticket <strong>%s</strong>:</p>
<blockquote>%s</blockquote>`,
		html.EscapeString(author.Name),
		html.EscapeString(ticket.Title),
		html.EscapeString(comment.Body))
	return subject, body
}

func FeedbackReplyEmail(feedback *domain.Feedback, replier *domain.User, reply *domain.FeedbackReply) (subject, body string) {
	subject = "You have a reply to your feedback"
	body = fmt.Sprintf(
		`<h2>New reply to your feedback</h2>
<p><strong>%s</strong> replied:</p>
<blockquote>%s</blockquote>`,
		html.EscapeString(replier.Name),
		html.EscapeString(reply.Body))
	return subject, body
}

func WelcomeEmail(user *domain.User) (subject, body string) {
	subject = "Welcome aboard"
	body = fmt.Sprintf(
		`<h2>Welcome, %s!</h2>
<p>Your account has been created. You can now submit tickets and feedback.</p>`,
		html.EscapeString(user.Name))
	return subject, body
}
