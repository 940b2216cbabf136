package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/landsraad/dune-server-go/internal/board"
)

// StateChecksum is a deterministic fingerprint of a game state, used to guard
// against divergence between replay playback and live resolution.
type StateChecksum struct {
	Hash      string
	Timestamp string
	Version   int
}

// ComputeChecksum hashes a canonical representation of the state. Two states
// that differ only in map iteration order or event timestamps hash equal.
func (g *GameState) ComputeChecksum() (*StateChecksum, error) {
	data := g.buildDeterministicRepresentation()
	hash := sha256.New()
	if _, err := hash.Write([]byte(data)); err != nil {
		return nil, fmt.Errorf("failed to compute hash: %w", err)
	}
	return &StateChecksum{
		Hash:      hex.EncodeToString(hash.Sum(nil)),
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Version:   1,
	}, nil
}

// buildDeterministicRepresentation renders the state as a canonical string
// independent of map iteration order. Event log and pending request IDs are
// excluded; they carry timestamps and random identifiers.
func (g *GameState) buildDeterministicRepresentation() string {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("GAME:%s|%d|%s|%t|%d|%t\n",
		g.GameID, g.Turn, g.Phase, g.AdvancedRules, g.StormSector, g.Ended))

	buf.WriteString("STORM_ORDER:")
	buf.WriteString(strings.Join(g.StormOrder, ","))
	buf.WriteString("\n")

	names := make([]string, 0, len(g.Factions))
	for f := range g.Factions {
		names = append(names, string(f))
	}
	sort.Strings(names)
	for _, name := range names {
		fs := g.Factions[board.Faction(name)]
		buf.WriteString(fmt.Sprintf("FACTION:%s|%d|%d|%d|%d|%d|%d|%s\n",
			name, fs.Spice, fs.Reserves, fs.EliteReserves,
			fs.Casualties, fs.EliteCasualties, len(fs.Hand), fs.Ally))

		hand := append([]string(nil), fs.Hand...)
		sort.Strings(hand)
		for _, id := range hand {
			buf.WriteString(fmt.Sprintf("  CARD:%s\n", id))
		}
		traitors := append([]string(nil), fs.Traitors...)
		sort.Strings(traitors)
		for _, id := range traitors {
			buf.WriteString(fmt.Sprintf("  TRAITOR:%s\n", id))
		}
		leaderIDs := make([]string, 0, len(fs.Leaders))
		for id := range fs.Leaders {
			leaderIDs = append(leaderIDs, id)
		}
		sort.Strings(leaderIDs)
		for _, id := range leaderIDs {
			l := fs.Leaders[id]
			buf.WriteString(fmt.Sprintf("  LEADER:%s|%s|%s|%s|%t\n",
				id, l.HeldBy, l.Location, l.Territory, l.UsedThisTurn))
		}
	}

	stacks := make([]string, 0, len(g.Stacks))
	for _, s := range g.Stacks {
		stacks = append(stacks, fmt.Sprintf("STACK:%s|%s|%d|%d|%d|%t",
			s.Faction, s.Territory, s.Sector, s.Forces, s.Elite, s.Advisors))
	}
	sort.Strings(stacks)
	buf.WriteString(strings.Join(stacks, "\n"))
	buf.WriteString("\n")

	piles := make([]string, 0, len(g.Spice))
	for _, p := range g.Spice {
		piles = append(piles, fmt.Sprintf("SPICE:%s|%d|%d", p.Territory, p.Sector, p.Amount))
	}
	sort.Strings(piles)
	buf.WriteString(strings.Join(piles, "\n"))
	buf.WriteString("\n")

	// Deck order matters; never sort these.
	buf.WriteString("TREACHERY_DECK:" + strings.Join(g.TreacheryDeck, ",") + "\n")
	buf.WriteString("TREACHERY_DISCARD:" + strings.Join(g.TreacheryDiscard, ",") + "\n")
	buf.WriteString("SPICE_DECK:" + strings.Join(g.SpiceDeck, ",") + "\n")
	buf.WriteString("SPICE_DISCARD:" + strings.Join(g.SpiceDiscard, ",") + "\n")

	return buf.String()
}

// VerifyChecksum reports whether the state still matches a stored checksum.
func (g *GameState) VerifyChecksum(expected *StateChecksum) (bool, error) {
	computed, err := g.ComputeChecksum()
	if err != nil {
		return false, fmt.Errorf("failed to compute checksum: %w", err)
	}
	return computed.Hash == expected.Hash, nil
}

// SerializeToBytes encodes the state with gob for storage or transmission.
// Unexported battle plan slots do not survive the trip; serialize between
// battles, not during one.
func (g *GameState) SerializeToBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(g); err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return buf.Bytes(), nil
}

// DeserializeFromBytes decodes a gob-encoded state.
func DeserializeFromBytes(data []byte) (*GameState, error) {
	var g GameState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&g); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	return &g, nil
}
