package game

import (
	"sort"
	"strings"

	"github.com/DedS3t/monopoly-engine/app/models"
)

func (t *tx) join(actor Actor) error {
	if actor.PlayerId == "" {
		return reject(NotInRoom, "anonymous player")
	}
	if p := t.room.Player(actor.PlayerId); p != nil {
		if p.Disconnected {
			p.Disconnected = false
			t.log(p.PlayerId, "%s is back", name(p))
		}
		return nil
	}
	if t.room.Status != models.StatusWaiting {
		return reject(WrongStatus, "room is %s", t.room.Status)
	}
	if len(t.room.Players) >= t.room.Capacity {
		return reject(RoomFull, "room %s has %d seats", t.room.Id, t.room.Capacity)
	}

	taken := make(map[int]bool, len(t.room.Players))
	for _, p := range t.room.Players {
		taken[p.Seat] = true
	}
	seat := 1
	for taken[seat] {
		seat++
	}

	p := &models.Participant{
		PlayerId:    actor.PlayerId,
		DisplayName: actor.DisplayName,
		Seat:        seat,
		Money:       t.Rules.StartMoney,
		JoinedAt:    t.now,
	}
	t.room.Players = append(t.room.Players, p)
	sort.Slice(t.room.Players, func(i, j int) bool {
		return t.room.Players[i].Seat < t.room.Players[j].Seat
	})
	t.log(p.PlayerId, "%s joined the room", name(p))
	return nil
}

func (t *tx) leave(actor Actor) error {
	p, err := t.member(actor)
	if err != nil {
		return err
	}
	if t.room.Status == models.StatusWaiting {
		kept := t.room.Players[:0]
		for _, other := range t.room.Players {
			if other.PlayerId != p.PlayerId {
				kept = append(kept, other)
			}
		}
		t.room.Players = kept
		t.log(p.PlayerId, "%s left the room", name(p))
		return nil
	}
	if p.Disconnected {
		return reject(AlreadyResolved, "player %s already left", p.PlayerId)
	}
	p.Disconnected = true
	t.log(p.PlayerId, "%s disconnected", name(p))
	return nil
}

func (t *tx) toggleReady(actor Actor) error {
	p, err := t.member(actor)
	if err != nil {
		return err
	}
	if t.room.Status != models.StatusWaiting {
		return reject(WrongStatus, "room is %s", t.room.Status)
	}
	p.IsReady = !p.IsReady
	if len(t.room.Players) < t.room.Capacity {
		return nil
	}
	for _, other := range t.room.Players {
		if !other.IsReady {
			return nil
		}
	}
	t.room.Status = models.StatusStarting
	t.room.CurrentTurnPlayerId = t.room.Players[0].PlayerId
	t.room.ComboTurn = 0
	t.log("", "everybody is ready, %s moves first", name(t.room.Players[0]))
	return nil
}

func (t *tx) chat(actor Actor, text string) error {
	p, err := t.member(actor)
	if err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return reject(InvalidTarget, "empty message")
	}
	if r := []rune(text); t.Rules.MaxChat > 0 && len(r) > t.Rules.MaxChat {
		text = string(r[:t.Rules.MaxChat])
	}
	t.out.Unchanged = true
	t.emit(EventChat, Message{
		PlayerId: p.PlayerId,
		Name:     name(p),
		Text:     text,
		Type:     "CHAT",
		Time:     t.now,
	})
	return nil
}
