package payments

import "sync"

// refLocks sérialise la réconciliation par external_reference : deux
// notifications concurrentes pour la même intention ne doivent pas passer
// toutes les deux la garde d'idempotence.
type refLocks struct {
	mu   sync.Mutex
	held map[string]*refLock
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

func newRefLocks() *refLocks {
	return &refLocks{held: make(map[string]*refLock)}
}

// lock prend le verrou de la clé et rend la fonction de déverrouillage.
// L'entrée est retirée de la table quand plus personne ne l'attend.
func (l *refLocks) lock(key string) func() {
	l.mu.Lock()
	entry, ok := l.held[key]
	if !ok {
		entry = &refLock{}
		l.held[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.held, key)
		}
		l.mu.Unlock()
	}
}
