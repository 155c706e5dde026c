package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/davicafu/hexashop/internal/shared/domain"
)

// Entry es una entidad rastreada junto con su estado y la huella de su último estado persistido.
type Entry struct {
	Entity      domain.Auditable
	State       State
	fingerprint []byte
}

func (e *Entry) Name() string { return e.Entity.EntityName() }

func (e *Entry) dirty() bool {
	return e.State != Unchanged || e.OwnedChanged()
}

// OwnedChanged indica si algún sub-objeto propio de la entidad cambió.
func (e *Entry) OwnedChanged() bool {
	if r, ok := e.Entity.(domain.OwnedChangeReporter); ok {
		return r.HasChangedOwnedEntities()
	}
	return false
}

// UnitOfWork coordina los cambios de UNA operación lógica y los confirma de forma atómica.
// No es seguro para uso concurrente: pertenece a la operación que lo creó, igual que
// los agregados que rastrea.
type UnitOfWork struct {
	store        Store
	interceptors []Interceptor
	entries      []*Entry
	index        map[domain.Auditable]*Entry
	outbox       []domain.OutboxEvent
	audited      map[*Entry]bool
	log          *zap.Logger
}

func newUnitOfWork(store Store, interceptors []Interceptor, log *zap.Logger) *UnitOfWork {
	return &UnitOfWork{
		store:        store,
		interceptors: interceptors,
		index:        make(map[domain.Auditable]*Entry),
		log:          log,
	}
}

// ---------------- Seguimiento ----------------

// Add marca la entidad como nueva.
func (u *UnitOfWork) Add(entity domain.Auditable) {
	if e, ok := u.index[entity]; ok {
		if e.State == Deleted {
			e.State = Modified
		}
		return
	}
	u.track(entity, Added)
}

// Attach rastrea una entidad cargada del almacén como Unchanged.
// Devuelve la instancia ya rastreada si había otra con el mismo nombre e id.
func (u *UnitOfWork) Attach(entity domain.Auditable) domain.Auditable {
	if existing := u.lookup(entity.EntityName(), entity); existing != nil {
		return existing.Entity
	}
	u.track(entity, Unchanged)
	return entity
}

// Update fuerza el estado Modified aunque la huella no cambie.
func (u *UnitOfWork) Update(entity domain.Auditable) {
	e, ok := u.index[entity]
	if !ok {
		u.track(entity, Modified)
		return
	}
	if e.State == Unchanged {
		e.State = Modified
	}
}

// Remove marca la entidad para borrado. Una entidad añadida en esta misma operación simplemente se olvida.
func (u *UnitOfWork) Remove(entity domain.Auditable) {
	e, ok := u.index[entity]
	if !ok {
		u.track(entity, Deleted)
		return
	}
	if e.State == Added {
		u.detach(e)
		return
	}
	e.State = Deleted
}

// Enqueue añade un evento de integración que se escribirá en la misma transacción que los cambios.
func (u *UnitOfWork) Enqueue(evt domain.OutboxEvent) {
	u.outbox = append(u.outbox, evt)
}

// Entries devuelve las entradas rastreadas en orden de seguimiento.
func (u *UnitOfWork) Entries() []*Entry {
	out := make([]*Entry, len(u.entries))
	copy(out, u.entries)
	return out
}

// Entities enumera los objetos con capacidad Entity.
func (u *UnitOfWork) Entities() []domain.Auditable {
	out := make([]domain.Auditable, 0, len(u.entries))
	for _, e := range u.entries {
		out = append(out, e.Entity)
	}
	return out
}

// Aggregates enumera los objetos con capacidad Aggregate, en orden de seguimiento.
func (u *UnitOfWork) Aggregates() []domain.EventSource {
	var out []domain.EventSource
	for _, e := range u.entries {
		if agg, ok := e.Entity.(domain.EventSource); ok {
			out = append(out, agg)
		}
	}
	return out
}

// StateOf devuelve el estado de una entidad o false si no está rastreada.
func (u *UnitOfWork) StateOf(entity domain.Auditable) (State, bool) {
	e, ok := u.index[entity]
	if !ok {
		return Unchanged, false
	}
	return e.State, true
}

// ---------------- Commit ----------------

// maxCommitRounds acota las vueltas de interceptores si los suscriptores no dejan de generar trabajo.
const maxCommitRounds = 10

// Commit ejecuta los interceptores en orden (auditoría, despacho de eventos) y después
// la escritura física. Todo o nada: si falla un interceptor o el Store, no se persiste nada.
//
// Si durante el despacho un suscriptor rastrea o modifica entidades, o levanta eventos
// nuevos, la cadena se repite sobre ese trabajo tardío: se audita una sola vez por commit
// y sus eventos también se despachan. Pasadas maxCommitRounds vueltas el commit falla.
//
// Los eventos de dominio se publican ANTES de la escritura física: si el Store falla
// después, las notificaciones ya entregadas describen un estado que no llegó a guardarse.
// Tras cualquier commit, con éxito o no, las colas de eventos quedan vacías.
func (u *UnitOfWork) Commit(ctx context.Context) (int, error) {
	u.audited = make(map[*Entry]bool)
	defer u.discardUndispatchedEvents()

	ctx = WithUnitOfWork(ctx, u)
	for round := 1; ; round++ {
		u.detectChanges()
		before := u.dirtySnapshot()
		for _, interceptor := range u.interceptors {
			if err := interceptor.SavingChanges(ctx, u); err != nil {
				return 0, err
			}
		}
		if !u.hasLateWork(before) {
			break
		}
		if round == maxCommitRounds {
			return 0, fmt.Errorf("commit: subscribers still producing changes after %d rounds", maxCommitRounds)
		}
		u.log.Debug("🔁 Trabajo tardío durante el despacho, repitiendo interceptores", zap.Int("round", round))
	}

	batch := u.batch()
	if batch.Empty() {
		return 0, nil
	}

	n, err := u.store.Apply(ctx, batch)
	if err != nil {
		return 0, err
	}

	u.acceptChanges()
	return n, nil
}

// dirtySnapshot anota qué entradas tenían cambios al empezar la vuelta.
func (u *UnitOfWork) dirtySnapshot() map[*Entry]bool {
	out := make(map[*Entry]bool, len(u.entries))
	for _, e := range u.entries {
		out[e] = e.dirty()
	}
	return out
}

// hasLateWork: entradas nuevas, entradas que pasaron a tener cambios o eventos sin despachar.
func (u *UnitOfWork) hasLateWork(before map[*Entry]bool) bool {
	u.detectChanges()
	for _, e := range u.entries {
		wasDirty, known := before[e]
		if !known || (!wasDirty && e.dirty()) {
			return true
		}
	}
	for _, agg := range u.Aggregates() {
		if agg.HasEvents() {
			return true
		}
	}
	return false
}

// markAudited devuelve false si la entrada ya se selló en este commit.
func (u *UnitOfWork) markAudited(e *Entry) bool {
	if u.audited == nil {
		u.audited = make(map[*Entry]bool)
	}
	if u.audited[e] {
		return false
	}
	u.audited[e] = true
	return true
}

func (u *UnitOfWork) batch() Batch {
	var b Batch
	for _, e := range u.entries {
		state := e.State
		if state == Unchanged && e.OwnedChanged() {
			state = Modified
		}
		if state == Unchanged {
			continue
		}
		b.Changes = append(b.Changes, Change{Name: e.Name(), State: state, Entity: e.Entity})
	}
	if len(u.outbox) > 0 {
		b.Outbox = append(b.Outbox, u.outbox...)
	}
	return b
}

// detectChanges compara la huella actual con la última aceptada.
func (u *UnitOfWork) detectChanges() {
	for _, e := range u.entries {
		if e.State != Unchanged {
			continue
		}
		current, err := fingerprint(e.Entity)
		if err != nil || string(current) != string(e.fingerprint) {
			e.State = Modified
		}
	}
}

func (u *UnitOfWork) acceptChanges() {
	kept := u.entries[:0]
	for _, e := range u.entries {
		if e.State == Deleted {
			delete(u.index, e.Entity)
			continue
		}
		e.State = Unchanged
		e.fingerprint, _ = fingerprint(e.Entity)
		if r, ok := e.Entity.(domain.OwnedChangeReporter); ok {
			r.AcceptOwnedChanges()
		}
		kept = append(kept, e)
	}
	u.entries = kept
	u.outbox = nil
}

// discardUndispatchedEvents vacía las colas que un interceptor previo al despacho dejó sin drenar.
func (u *UnitOfWork) discardUndispatchedEvents() {
	for _, agg := range u.Aggregates() {
		if !agg.HasEvents() {
			continue
		}
		dropped := agg.DrainEvents()
		u.log.Warn("⚠️ Descartando eventos de dominio no despachados",
			zap.String("entity", agg.EntityName()),
			zap.String("id", agg.GetID().String()),
			zap.Int("count", len(dropped)),
		)
	}
}

// ---------------- Internos ----------------

func (u *UnitOfWork) track(entity domain.Auditable, state State) *Entry {
	e := &Entry{Entity: entity, State: state}
	if state == Unchanged {
		e.fingerprint, _ = fingerprint(entity)
	}
	u.entries = append(u.entries, e)
	u.index[entity] = e
	return e
}

func (u *UnitOfWork) detach(target *Entry) {
	delete(u.index, target.Entity)
	for i, e := range u.entries {
		if e == target {
			u.entries = append(u.entries[:i], u.entries[i+1:]...)
			return
		}
	}
}

// lookup busca por identidad lógica (nombre + id), no por puntero.
func (u *UnitOfWork) lookup(name string, entity domain.Auditable) *Entry {
	if e, ok := u.index[entity]; ok {
		return e
	}
	return u.lookupByID(name, entity.GetID().String())
}

func (u *UnitOfWork) lookupByID(name, id string) *Entry {
	for _, e := range u.entries {
		if e.Name() == name && e.Entity.GetID().String() == id {
			return e
		}
	}
	return nil
}

func fingerprint(entity domain.Auditable) ([]byte, error) {
	b, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("fingerprint %s: %w", entity.EntityName(), err)
	}
	return b, nil
}
