package handler

import (
	"streamlog/internal/stream/format"
	"streamlog/internal/stream/models"
)

type recordResponse struct {
	ID         int64             `json:"id"`
	ObjectID   int64             `json:"object_id"`
	SiteID     int64             `json:"site_id"`
	BlogID     int64             `json:"blog_id"`
	AuthorID   int64             `json:"author"`
	AuthorRole string            `json:"author_role,omitempty"`
	AuthorMeta map[string]string `json:"author_meta,omitempty"`
	Created    string            `json:"created"`
	Visibility string            `json:"visibility"`
	Type       string            `json:"type"`
	Summary    string            `json:"summary"`
	Connector  string            `json:"connector"`
	Context    string            `json:"context"`
	Action     string            `json:"action"`
	StreamMeta *models.Meta      `json:"stream_meta,omitempty"`
	IP         string            `json:"ip,omitempty"`
}

func toRecordResponse(record *models.Record) recordResponse {
	resp := recordResponse{
		ID:         int64(record.ID),
		ObjectID:   record.ObjectID,
		SiteID:     record.SiteID,
		BlogID:     record.BlogID,
		AuthorID:   int64(record.AuthorID),
		AuthorRole: record.AuthorRole,
		AuthorMeta: record.AuthorMeta,
		Created:    format.Timestamp(record.Created),
		Visibility: string(record.Visibility),
		Type:       record.Type,
		Summary:    record.Summary,
		Connector:  record.Connector,
		Context:    record.Context,
		Action:     record.Action,
		IP:         record.IP,
	}
	if record.StreamMeta != nil && record.StreamMeta.Len() > 0 {
		resp.StreamMeta = record.StreamMeta
	}
	return resp
}

type ruleResponse struct {
	ID        string `json:"id"`
	Connector string `json:"connector,omitempty"`
	Context   string `json:"context,omitempty"`
	Action    string `json:"action,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
	Author    *int64 `json:"author,omitempty"`
	Role      string `json:"role,omitempty"`
}

func toRuleResponse(rule models.ExclusionRule) ruleResponse {
	resp := ruleResponse{
		ID:        rule.ID.String(),
		Connector: rule.Connector,
		Context:   rule.Context,
		Action:    rule.Action,
		IPAddress: rule.IPAddress,
		Role:      rule.Role,
	}
	if rule.Author != nil {
		author := int64(*rule.Author)
		resp.Author = &author
	}
	return resp
}
