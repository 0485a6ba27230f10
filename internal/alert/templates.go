package alert

import (
	"fmt"
	"strings"

	"github.com/watchtowerhq/watchtower/internal/queue"
)

// Condition describes one breached threshold, rendered into the
// outgoing email.
type Condition struct {
	Label     string
	Detail    string
	Metric    float64
	Threshold float64
}

// NewHighErrorRateCondition builds the high-error-rate condition.
func NewHighErrorRateCondition(errorRatePct, threshold float64) Condition {
	return Condition{
		Label:     "High Error Rate",
		Detail:    "Check error logs and recent deployments.",
		Metric:    errorRatePct,
		Threshold: threshold,
	}
}

// NewLowUptimeCondition builds the low-uptime condition.
func NewLowUptimeCondition(uptimePct, threshold float64) Condition {
	return Condition{
		Label:     "Low Uptime",
		Detail:    "Review recent outages and investigate root cause.",
		Metric:    uptimePct,
		Threshold: threshold,
	}
}

// RenderAlertEmail renders one notification job covering every
// breached condition. A single email is produced even when several
// thresholds breach in the same evaluation cycle.
func RenderAlertEmail(to, websiteName string, conditions []Condition) queue.EmailJob {
	labels := make([]string, len(conditions))
	for i, c := range conditions {
		labels[i] = c.Label
	}

	subject := fmt.Sprintf("⚠️ %s detected for %s", strings.Join(labels, " and "), websiteName)

	var text strings.Builder
	fmt.Fprintf(&text, "Incident: %s\n", strings.Join(labels, ", "))
	fmt.Fprintf(&text, "Website: %s\n\n", websiteName)
	for _, c := range conditions {
		fmt.Fprintf(&text, "%s: %.2f%% (threshold %.0f%%)\n%s\n\n", c.Label, c.Metric, c.Threshold, c.Detail)
	}

	var html strings.Builder
	html.WriteString("<html><body>")
	fmt.Fprintf(&html, "<h2>%s</h2>", subject)
	fmt.Fprintf(&html, "<p>Website: <strong>%s</strong></p><ul>", websiteName)
	for _, c := range conditions {
		fmt.Fprintf(&html, "<li><strong>%s</strong>: %.2f%% (threshold %.0f%%) — %s</li>", c.Label, c.Metric, c.Threshold, c.Detail)
	}
	html.WriteString("</ul></body></html>")

	return queue.EmailJob{
		To:      to,
		Subject: subject,
		Text:    text.String(),
		HTML:    html.String(),
	}
}

// RenderMonitoringStartedEmail renders the confirmation sent when
// monitoring is activated for a website.
func RenderMonitoringStartedEmail(to, websiteName, url, region string) queue.EmailJob {
	subject := "✅ Website Monitoring Activated - " + websiteName

	text := fmt.Sprintf(
		"Monitoring has been successfully initiated for your website %q in the %q region. "+
			"Alerts will be sent if any performance issues or anomalies are detected.",
		websiteName, region)

	html := fmt.Sprintf(
		"<html><body><h2>Monitoring Activated</h2>"+
			"<p>Your website is now being monitored.</p>"+
			"<ul><li>Website: <strong>%s</strong></li>"+
			"<li>URL: %s</li>"+
			"<li>Region: %s</li></ul>"+
			"<p>Alerts fire when the error rate exceeds 5%% or uptime falls below 90%%.</p>"+
			"</body></html>",
		websiteName, url, region)

	return queue.EmailJob{To: to, Subject: subject, Text: text, HTML: html}
}

// RenderMonitoringStoppedEmail renders the confirmation sent when
// monitoring is cancelled for a website.
func RenderMonitoringStoppedEmail(to, websiteName string) queue.EmailJob {
	subject := "Website Monitoring Stopped - " + websiteName

	text := fmt.Sprintf("Monitoring has been stopped for your website %q. "+
		"No further checks or alerts will be produced.", websiteName)

	html := fmt.Sprintf(
		"<html><body><h2>Monitoring Stopped</h2>"+
			"<p>Monitoring has been stopped for <strong>%s</strong>. "+
			"No further checks or alerts will be produced.</p></body></html>",
		websiteName)

	return queue.EmailJob{To: to, Subject: subject, Text: text, HTML: html}
}
