package gc

import (
	"fmt"

	"github.com/paralin/go-dota2/protocol"
	"google.golang.org/protobuf/proto"
)

// Steam GC shared object message types
const (
	esoMsgCreate          = 21
	esoMsgUpdate          = 22
	esoMsgDestroy         = 23
	esoMsgCacheSubscribed = 24
	esoMsgUpdateMultiple  = 26
)

// lobbyTypeID is the shared object type id of CSODOTALobby
const lobbyTypeID = 2004

var chatMessageType = uint32(protocol.EDOTAGCMsg_k_EMsgGCChatMessage)

// decodeSharedObjects turns a GC shared object packet into lobby events.
// Packets that carry no lobby object decode to nothing.
func decodeSharedObjects(msgType uint32, body []byte) ([]Event, error) {
	var events []Event

	switch msgType {
	case esoMsgCacheSubscribed:
		var msg protocol.CMsgSOCacheSubscribed
		if err := proto.Unmarshal(body, &msg); err != nil {
			return nil, fmt.Errorf("decode cache subscribed: %w", err)
		}
		for _, obj := range msg.GetObjects() {
			if obj.GetTypeId() != lobbyTypeID {
				continue
			}
			for _, data := range obj.GetObjectData() {
				ev, err := decodeLobby(data)
				if err != nil {
					return nil, err
				}
				events = append(events, ev)
			}
		}

	case esoMsgCreate, esoMsgUpdate, esoMsgDestroy:
		var msg protocol.CMsgSOSingleObject
		if err := proto.Unmarshal(body, &msg); err != nil {
			return nil, fmt.Errorf("decode single object: %w", err)
		}
		if msg.GetTypeId() != lobbyTypeID {
			return nil, nil
		}
		ev, err := decodeLobby(msg.GetObjectData())
		if err != nil {
			return nil, err
		}
		if msgType == esoMsgDestroy {
			return []Event{LobbyRemoved{LobbyID: ev.Lobby.ID}}, nil
		}
		events = append(events, ev)

	case esoMsgUpdateMultiple:
		var msg protocol.CMsgSOMultipleObjects
		if err := proto.Unmarshal(body, &msg); err != nil {
			return nil, fmt.Errorf("decode multiple objects: %w", err)
		}
		for _, obj := range msg.GetObjectsAdded() {
			if obj.GetTypeId() != lobbyTypeID {
				continue
			}
			ev, err := decodeLobby(obj.GetObjectData())
			if err != nil {
				return nil, err
			}
			events = append(events, ev)
		}
		for _, obj := range msg.GetObjectsModified() {
			if obj.GetTypeId() != lobbyTypeID {
				continue
			}
			ev, err := decodeLobby(obj.GetObjectData())
			if err != nil {
				return nil, err
			}
			events = append(events, ev)
		}
	}

	return events, nil
}

func decodeLobby(data []byte) (LobbyChanged, error) {
	var lobby protocol.CSODOTALobby
	if err := proto.Unmarshal(data, &lobby); err != nil {
		return LobbyChanged{}, fmt.Errorf("decode lobby: %w", err)
	}
	return LobbyChanged{Lobby: lobbyFromProto(&lobby)}, nil
}

func lobbyFromProto(lobby *protocol.CSODOTALobby) Lobby {
	l := Lobby{
		ID:        lobby.GetLobbyId(),
		State:     lobby.GetState(),
		GameState: lobby.GetGameState(),
		MatchID:   lobby.GetMatchId(),
		Outcome:   lobby.GetMatchOutcome(),
	}

	for _, member := range lobby.GetAllMembers() {
		if member.GetId() == 0 {
			continue
		}
		l.Members = append(l.Members, Member{
			SteamID: member.GetId(),
			Team:    member.GetTeam(),
		})
	}

	details := lobby.GetTeamDetails()
	if len(details) > 0 {
		l.RadiantTeamID = details[0].GetTeamId()
	}
	if len(details) > 1 {
		l.DireTeamID = details[1].GetTeamId()
	}

	return l
}

// decodeChat parses a chat packet, keeping only messages of channelID.
func decodeChat(body []byte, channelID uint64) (ChatMessage, bool) {
	var msg protocol.CMsgDOTAChatMessage
	if err := proto.Unmarshal(body, &msg); err != nil {
		return ChatMessage{}, false
	}
	if channelID == 0 || msg.GetChannelId() != channelID {
		return ChatMessage{}, false
	}
	return ChatMessage{
		SteamID: SteamID64(msg.GetAccountId()),
		Name:    msg.GetPersonaName(),
		Text:    msg.GetText(),
	}, true
}
