package service

import (
	"bytes"
	"encoding/json"

	"notification-feed/internal/domain/entity"
)

// actorExtractor pulls an actor out of one known payload snapshot shape
type actorExtractor func(payload json.RawMessage) (entity.Actor, bool)

// Ingestion has written two snapshot shapes over time. Extractors are tried
// in order and the record's author id is the last resort.
var localActorExtractors = []actorExtractor{
	embeddedActor,
	snapshotAuthor,
}

// flexibleID accepts ids written either as JSON strings or numbers
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexibleID(n.String())
	return nil
}

type embeddedActorPayload struct {
	Actor *struct {
		ID          flexibleID `json:"id"`
		Handle      string     `json:"handle"`
		DisplayName string     `json:"display_name"`
		AvatarURL   string     `json:"avatar_url"`
	} `json:"actor"`
}

func embeddedActor(payload json.RawMessage) (entity.Actor, bool) {
	var p embeddedActorPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.Actor == nil || p.Actor.ID == "" {
		return entity.Actor{}, false
	}
	return entity.Actor{
		ID:           string(p.Actor.ID),
		Handle:       p.Actor.Handle,
		DisplayLabel: p.Actor.DisplayName,
		AvatarRef:    p.Actor.AvatarURL,
	}, true
}

type snapshotAuthorPayload struct {
	Author *struct {
		FID         flexibleID `json:"fid"`
		Username    string     `json:"username"`
		DisplayName string     `json:"display_name"`
		PfpURL      string     `json:"pfp_url"`
	} `json:"author"`
}

func snapshotAuthor(payload json.RawMessage) (entity.Actor, bool) {
	var p snapshotAuthorPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.Author == nil {
		return entity.Actor{}, false
	}
	if p.Author.FID == "" && p.Author.Username == "" {
		return entity.Actor{}, false
	}
	return entity.Actor{
		ID:           string(p.Author.FID),
		Handle:       p.Author.Username,
		DisplayLabel: p.Author.DisplayName,
		AvatarRef:    p.Author.PfpURL,
	}, true
}

// resolveLocalActor builds the actor of a persisted record
func resolveLocalActor(record *entity.NotificationRecord) entity.Actor {
	if len(record.Payload) > 0 {
		for _, extract := range localActorExtractors {
			if actor, ok := extract(record.Payload); ok {
				if actor.ID == "" {
					actor.ID = record.AuthorID
				}
				return actor
			}
		}
	}
	return entity.Actor{ID: record.AuthorID}
}

// resolveExternalActor builds the actor of an aggregator item
func resolveExternalActor(item *entity.ExternalNotification) entity.Actor {
	if item.Actor == nil {
		return entity.Actor{}
	}
	return *item.Actor
}
