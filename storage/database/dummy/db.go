package dummydb

import (
	"sync"

	"github.com/google/uuid"

	"github.com/bitbox360/backend/core/project"
)

type (
	DB struct {
		project *projectTables
	}

	projectTables struct {
		sync.RWMutex
		projects   map[uuid.UUID]*project.Project
		groups     map[uuid.UUID]*project.Group
		members    map[uuid.UUID][]*project.GroupMember
		marks      []project.Mark
		doneAlerts []project.DoneAlert
		tokens     map[uuid.UUID]*project.StudentToken
		teachers   map[uuid.UUID]project.Teacher
		configs    map[uuid.UUID]project.UserConfig
	}
)

func Open() (*DB, error) {
	db := &DB{
		project: &projectTables{
			projects: make(map[uuid.UUID]*project.Project),
			groups:   make(map[uuid.UUID]*project.Group),
			members:  make(map[uuid.UUID][]*project.GroupMember),
			tokens:   make(map[uuid.UUID]*project.StudentToken),
			teachers: make(map[uuid.UUID]project.Teacher),
			configs:  make(map[uuid.UUID]project.UserConfig),
		},
	}
	return db, nil
}

// Seed helpers for tests and local development.

func (db *DB) AddProject(p project.Project) project.Project {
	db.project.Lock()
	defer db.project.Unlock()

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	db.project.projects[p.ID] = &p
	return p
}

func (db *DB) AddGroup(g project.Group) project.Group {
	db.project.Lock()
	defer db.project.Unlock()

	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	db.project.groups[g.ID] = &g
	return g
}

func (db *DB) AddGroupMember(m project.GroupMember) project.GroupMember {
	db.project.Lock()
	defer db.project.Unlock()

	if m.Student.ID == uuid.Nil {
		m.Student.ID = uuid.New()
	}
	db.project.members[m.GroupID] = append(db.project.members[m.GroupID], &m)
	return m
}

func (db *DB) AddMark(m project.Mark) {
	db.project.Lock()
	defer db.project.Unlock()
	db.project.marks = append(db.project.marks, m)
}

func (db *DB) SetTeacher(promotionID uuid.UUID, t project.Teacher) {
	db.project.Lock()
	defer db.project.Unlock()

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	db.project.teachers[promotionID] = t
}

func (db *DB) SetTeacherConfig(promotionID uuid.UUID, cfg project.UserConfig) {
	db.project.Lock()
	defer db.project.Unlock()
	db.project.configs[promotionID] = cfg
}

func (db *DB) MarkTokenUsed(id uuid.UUID) {
	db.project.Lock()
	defer db.project.Unlock()

	if t, ok := db.project.tokens[id]; ok {
		t.Used = true
	}
}
