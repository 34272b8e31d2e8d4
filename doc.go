// Package arbor is a small 2D engine with a built-in scene editor, running on
// [Ebitengine].
//
// # Objects and components
//
// Every entity is a [GameObject]: an id, a name, a [Transform], a z-index and
// an ordered list of [Component]s. Components are looked up by
// [ComponentKind]; update order is insertion order.
//
//	view := arbor.NewView("main", arbor.ViewConfig{})
//	box := view.CreateObject("box",
//		arbor.NewTransform(mgl64.Vec2{100, 100}, mgl64.Vec2{40, 40}), 0,
//		arbor.NewColorSprite(arbor.Color{R: 1, A: 1}),
//	)
//	arbor.NewShapeRenderer(box, arbor.ShapeCircle, 0)
//
// # Rendering
//
// Sprites are drawn through a [Renderer] that packs them into fixed-capacity
// [RenderBatch]es, one z-index per batch, with a small set of bound textures
// per batch. A sprite whose texture or z-index changes is queued and
// rebatched before the next frame is drawn. The graphics backend sits behind
// the [GPU] interface; [EbitenGPU] is the default.
//
// # Editing
//
// A [View] owns the object arena, a tree of [Group]s, the selection and a
// [History] of [EditorAction]s. Actions address objects by id, so undo and
// redo keep working after objects are deleted and restored.
//
//	view.Select(box)
//	view.MoveSelection(mgl64.Vec2{10, 0})
//	view.Undo()
//
// [View.Play] snapshots the scene and runs physics and scripts;
// [View.Stop] restores the snapshot.
//
// # Persistence
//
// Scenes are JSON files ([View.SaveScene], [View.LoadScene]). A [Project]
// groups scenes, scripts and assets under one directory with a project.yaml
// descriptor.
//
// [Ebitengine]: https://ebitengine.org
package arbor
