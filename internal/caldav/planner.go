// Package caldav publishes the generated schedule to an external planner via
// CalDAV: the full ICS document is uploaded as a single resource under the
// named calendar collection.
package caldav

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
)

// customTransport handles adding Basic Auth and custom headers to requests.
type customTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
}

// RoundTrip adds required headers and authentication to each request.
func (t *customTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.Username, t.Password)
	req.Header.Set("User-Agent", "bidcal/1.0")
	return t.Transport.RoundTrip(req)
}

// PlannerClient is a client for publishing schedules to a CalDAV server.
type PlannerClient struct {
	caldavClient *caldav.Client
	webdavClient *webdav.Client
	logger       *slog.Logger
	endpoint     string
	calendarURL  string
}

// NewClient creates a PlannerClient and resolves the named calendar
// collection on the server.
func NewClient(logger *slog.Logger, endpoint, username, password, calendarName string) (*PlannerClient, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("planner endpoint is not set")
	}
	transport := &customTransport{
		Username:  username,
		Password:  password,
		Transport: http.DefaultTransport,
	}
	httpClient := &http.Client{Transport: transport}

	caldavClient, err := caldav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}

	webdavClient, err := webdav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create webdav client: %w", err)
	}

	c := &PlannerClient{
		caldavClient: caldavClient,
		webdavClient: webdavClient,
		logger:       logger,
		endpoint:     endpoint,
	}

	logger.Info("Finding planner calendar", "calendarName", calendarName)
	calendarURL, err := c.findCalendar(context.Background(), calendarName)
	if err != nil {
		return nil, fmt.Errorf("could not find calendar '%s': %w", calendarName, err)
	}
	c.calendarURL = calendarURL
	logger.Info("Successfully found planner calendar", "url", calendarURL)

	return c, nil
}

// PublishSchedule uploads an already-rendered ICS document under the given
// file name inside the calendar collection.
func (c *PlannerClient) PublishSchedule(ctx context.Context, fileName, icsDocument string) error {
	c.logger.Debug("Publishing schedule", "file", fileName)

	// The resource path must be relative to the endpoint for the webdav client.
	resourcePath := path.Join(strings.TrimPrefix(c.calendarURL, c.endpoint), fileName)

	writer, err := c.webdavClient.Create(ctx, resourcePath)
	if err != nil {
		return fmt.Errorf("failed to create resource on CalDAV server: %w", err)
	}
	defer writer.Close()

	if _, err := strings.NewReader(icsDocument).WriteTo(writer); err != nil {
		return fmt.Errorf("failed to upload schedule: %w", err)
	}

	c.logger.Info("Successfully published schedule", "file", fileName)
	return nil
}

// findCalendar discovers the user's calendars and returns the URL for the one
// with the matching name.
func (c *PlannerClient) findCalendar(ctx context.Context, name string) (string, error) {
	principalPath, err := c.caldavClient.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal path: %w", err)
	}

	homeSetPath, err := c.caldavClient.FindCalendarHomeSet(ctx, principalPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	calendars, err := c.caldavClient.FindCalendars(ctx, homeSetPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}

	for _, cal := range calendars {
		if cal.Name == name {
			return fmt.Sprintf("%s%s", strings.TrimSuffix(c.endpoint, "/"), cal.Path), nil
		}
	}

	return "", fmt.Errorf("no calendar found with name '%s'", name)
}
