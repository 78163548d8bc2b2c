package main

import (
	"fmt"
	"io"

	"outbreak.gg/internal/persistence/indexdb"
	"outbreak.gg/internal/sim/world"
)

// writeMetrics renders m in the Prometheus text exposition format.
func writeMetrics(out io.Writer, worldID string, m world.WorldMetrics, idx *indexdb.SQLiteIndex) {
	gauge := func(name, help string, v any) {
		fmt.Fprintf(out, "# HELP outbreak_%s %s\n", name, help)
		fmt.Fprintf(out, "# TYPE outbreak_%s gauge\n", name)
		fmt.Fprintf(out, "outbreak_%s{world=%q} %v\n", name, worldID, v)
	}
	gauge("world_tick", "Current world tick.", m.Tick)
	gauge("world_players", "Players holding a slot.", m.Players)
	gauge("world_clients", "Connected clients.", m.Clients)
	gauge("world_characters", "Alive characters.", m.Characters)
	gauge("world_zombies", "Alive characters on the zombie team.", m.Zombies)
	gauge("world_entities", "Live projectiles, walls, turrets and mines.", m.Entities)
	gauge("world_snap_ids_in_use", "Allocated snapshot ids.", m.SnapIDsInUse)
	gauge("world_snap_id_double_frees", "Snapshot id releases that were not in use.", m.SnapIDDoubleFrees)
	gauge("world_step_ms", "Last tick step duration in milliseconds.", fmt.Sprintf("%.3f", m.StepMS))

	fmt.Fprintf(out, "# HELP outbreak_world_queue_depth Channel backlog depth.\n")
	fmt.Fprintf(out, "# TYPE outbreak_world_queue_depth gauge\n")
	fmt.Fprintf(out, "outbreak_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "inbox", m.QueueDepths.Inbox)
	fmt.Fprintf(out, "outbreak_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "cmds", m.QueueDepths.Cmds)
	fmt.Fprintf(out, "outbreak_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "join", m.QueueDepths.Join)
	fmt.Fprintf(out, "outbreak_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "leave", m.QueueDepths.Leave)

	if idx == nil {
		return
	}
	s := idx.Stats()
	fmt.Fprintf(out, "# HELP outbreak_index_dropped_total Index writes dropped because the queue was full.\n")
	fmt.Fprintf(out, "# TYPE outbreak_index_dropped_total counter\n")
	fmt.Fprintf(out, "outbreak_index_dropped_total{world=%q,kind=%q} %d\n", worldID, "tick", s.DropTickTotal)
	fmt.Fprintf(out, "outbreak_index_dropped_total{world=%q,kind=%q} %d\n", worldID, "event", s.DropEventTotal)
	fmt.Fprintf(out, "outbreak_index_dropped_total{world=%q,kind=%q} %d\n", worldID, "snapshot", s.DropSnapshotTotal)
}
