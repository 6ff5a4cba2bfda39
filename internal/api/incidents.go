package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/bissquit/incident-console/internal/domain"
)

// ListIncidents returns incidents matching the server-side filter.
func (c *Client) ListIncidents(ctx context.Context, filter domain.IncidentFilter) ([]domain.Incident, error) {
	var raw json.RawMessage
	if err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/incidents",
		path:   "/incidents",
		query:  filter.Query(),
	}, &raw); err != nil {
		return nil, err
	}
	return decodeList[domain.Incident](raw, "incidents")
}

// GetIncident returns the incident detail view.
func (c *Client) GetIncident(ctx context.Context, id string) (*domain.Incident, error) {
	var inc domain.Incident
	if err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/incidents/{id}",
		path:   "/incidents/" + escape(id),
	}, &inc); err != nil {
		return nil, err
	}
	return &inc, nil
}

// CreateIncident creates an incident.
func (c *Client) CreateIncident(ctx context.Context, input domain.CreateIncidentInput) (*domain.Incident, error) {
	var inc domain.Incident
	if err := c.do(ctx, call{
		method: http.MethodPost,
		route:  "/incidents",
		path:   "/incidents",
		body:   input,
	}, &inc); err != nil {
		return nil, err
	}
	return &inc, nil
}

// UpdateIncident applies a partial field update.
func (c *Client) UpdateIncident(ctx context.Context, id string, input domain.UpdateIncidentInput) (*domain.Incident, error) {
	var inc domain.Incident
	if err := c.do(ctx, call{
		method: http.MethodPut,
		route:  "/incidents/{id}",
		path:   "/incidents/" + escape(id),
		body:   input,
	}, &inc); err != nil {
		return nil, err
	}
	return &inc, nil
}

type statusRequest struct {
	Status domain.IncidentStatus `json:"status"`
	Author string                `json:"author,omitempty"`
}

// UpdateIncidentStatus asks the server to move the incident to status.
func (c *Client) UpdateIncidentStatus(ctx context.Context, id string, status domain.IncidentStatus, author string) (*domain.Incident, error) {
	var inc domain.Incident
	if err := c.do(ctx, call{
		method: http.MethodPatch,
		route:  "/incidents/{id}/status",
		path:   "/incidents/" + escape(id) + "/status",
		body:   statusRequest{Status: status, Author: author},
	}, &inc); err != nil {
		return nil, err
	}
	return &inc, nil
}

// ResolveIncident resolves the incident with resolution details.
func (c *Client) ResolveIncident(ctx context.Context, id string, input domain.ResolveIncidentInput) (*domain.Incident, error) {
	var inc domain.Incident
	if err := c.do(ctx, call{
		method: http.MethodPut,
		route:  "/incidents/{id}/resolve",
		path:   "/incidents/" + escape(id) + "/resolve",
		body:   input,
	}, &inc); err != nil {
		return nil, err
	}
	return &inc, nil
}

type assignRequest struct {
	AssignedTo string `json:"assigned_to"`
	Author     string `json:"author,omitempty"`
}

// AssignIncident assigns the incident to a person.
func (c *Client) AssignIncident(ctx context.Context, id, assignee, author string) (*domain.Incident, error) {
	var inc domain.Incident
	if err := c.do(ctx, call{
		method: http.MethodPut,
		route:  "/incidents/{id}/assign",
		path:   "/incidents/" + escape(id) + "/assign",
		body:   assignRequest{AssignedTo: assignee, Author: author},
	}, &inc); err != nil {
		return nil, err
	}
	return &inc, nil
}

// ListTimeline returns the incident's timeline as stored by the server.
func (c *Client) ListTimeline(ctx context.Context, incidentID string) ([]domain.TimelineEntry, error) {
	var raw json.RawMessage
	if err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/incidents/{id}/timeline",
		path:   "/incidents/" + escape(incidentID) + "/timeline",
	}, &raw); err != nil {
		return nil, err
	}
	return decodeList[domain.TimelineEntry](raw, "timeline")
}

// AddTimelineEntry appends an entry to the incident's timeline.
func (c *Client) AddTimelineEntry(ctx context.Context, incidentID string, input domain.TimelineEntryInput) (*domain.TimelineEntry, error) {
	var entry domain.TimelineEntry
	if err := c.do(ctx, call{
		method: http.MethodPost,
		route:  "/incidents/{id}/timeline",
		path:   "/incidents/" + escape(incidentID) + "/timeline",
		body:   input,
	}, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}
