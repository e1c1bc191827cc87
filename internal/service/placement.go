package service

import "github.com/iliyamo/badminton-scheduler/internal/model"

// InMainList reports whether the registration at index (0-based, in
// registration order) holds one of the session's places.
func InMainList(index, places int) bool { return index < places }

// QueueRank returns the 1-based waiting position of the registration at
// index, or 0 when it is in the main list.
func QueueRank(index, places int) int {
    if InMainList(index, places) {
        return 0
    }
    return index - places + 1
}

// RosterEntry is a participant with its derived placement.
type RosterEntry struct {
    model.Participant
    Position   int  // 1-based position in registration order
    InMainList bool
    QueueRank  int // 0 for main list entries
}

// Roster is a session with its participants split into main list and queue.
type Roster struct {
    Session  model.Session
    MainList []RosterEntry
    Queue    []RosterEntry
}

// SplitRoster partitions participants, already in registration order, into
// the first places entries and the rest.
func SplitRoster(participants []model.Participant, places int) (main, queue []RosterEntry) {
    main = make([]RosterEntry, 0, min(len(participants), max(places, 0)))
    queue = make([]RosterEntry, 0)
    for i, p := range participants {
        e := RosterEntry{
            Participant: p,
            Position:    i + 1,
            InMainList:  InMainList(i, places),
            QueueRank:   QueueRank(i, places),
        }
        if e.InMainList {
            main = append(main, e)
        } else {
            queue = append(queue, e)
        }
    }
    return main, queue
}
