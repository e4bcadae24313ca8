package schema

import "fmt"

// Project applies the forward operations of the given migrations, lowest
// version first, to an empty schema and returns the resulting shape. The
// output is the same model Inspect reconstructs, so the pending sources can
// be diffed against a live database before they run. RawSQL operations are
// opaque to the projection and are skipped.
func Project(migrations []*Migration) (*DatabaseSchema, error) {
	s := &DatabaseSchema{}
	for _, mig := range sortByVersion(migrations) {
		for _, op := range mig.Up {
			if err := applyOp(s, op); err != nil {
				return nil, fmt.Errorf("schema: projecting %s: %w", mig.Name(), err)
			}
		}
	}
	return s, nil
}

// applyOp mutates the schema the way the operation's DDL would mutate the
// database. Input tables and columns are cloned so the migration sources stay
// untouched.
func applyOp(s *DatabaseSchema, op Operation) error {
	switch op := op.(type) {
	case *CreateTable:
		if _, ok := s.Table(op.Table.Name); ok {
			return fmt.Errorf("table %q already exists", op.Table.Name)
		}
		s.Tables = append(s.Tables, cloneTable(op.Table))
	case *DropTable:
		return removeTable(s, op.Name)
	case *RenameTable:
		t, err := tableOf(s, op.From)
		if err != nil {
			return err
		}
		t.Name = op.To
	case *AddColumn:
		t, err := tableOf(s, op.Table)
		if err != nil {
			return err
		}
		if t.HasColumn(op.Column.Name) {
			return fmt.Errorf("column %q already exists in table %q", op.Column.Name, t.Name)
		}
		t.Columns = append(t.Columns, cloneColumn(op.Column))
	case *DropColumn:
		t, err := tableOf(s, op.Table)
		if err != nil {
			return err
		}
		return removeColumn(t, op.Column)
	case *AlterColumn:
		t, err := tableOf(s, op.Table)
		if err != nil {
			return err
		}
		for i, c := range t.Columns {
			if c.Name == op.Column.Name {
				t.Columns[i] = cloneColumn(op.Column)
				return nil
			}
		}
		return fmt.Errorf("column %q does not exist in table %q", op.Column.Name, t.Name)
	case *RenameColumn:
		t, err := tableOf(s, op.Table)
		if err != nil {
			return err
		}
		c, ok := t.Column(op.From)
		if !ok {
			return fmt.Errorf("column %q does not exist in table %q", op.From, t.Name)
		}
		c.Name = op.To
	case *AddPrimaryKey:
		t, err := tableOf(s, op.Table)
		if err != nil {
			return err
		}
		t.PrimaryKey = append([]string(nil), op.Columns...)
	case *DropPrimaryKey:
		t, err := tableOf(s, op.Table)
		if err != nil {
			return err
		}
		t.PrimaryKey = nil
	case *AddForeignKey:
		t, err := tableOf(s, op.Table)
		if err != nil {
			return err
		}
		fk := *op.ForeignKey
		t.ForeignKeys = append(t.ForeignKeys, &fk)
	case *DropForeignKey:
		t, err := tableOf(s, op.Table)
		if err != nil {
			return err
		}
		for i, fk := range t.ForeignKeys {
			if fk.Symbol == op.Symbol {
				t.ForeignKeys = append(t.ForeignKeys[:i], t.ForeignKeys[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("foreign key %q does not exist in table %q", op.Symbol, t.Name)
	case *CreateIndex:
		t, err := tableOf(s, op.Table)
		if err != nil {
			return err
		}
		if _, ok := t.Index(op.Index.Name); ok {
			return fmt.Errorf("index %q already exists in table %q", op.Index.Name, t.Name)
		}
		t.Indexes = append(t.Indexes, cloneIndex(op.Index))
	case *DropIndex:
		t, err := tableOf(s, op.Table)
		if err != nil {
			return err
		}
		for i, idx := range t.Indexes {
			if idx.Name == op.Name {
				t.Indexes = append(t.Indexes[:i], t.Indexes[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("index %q does not exist in table %q", op.Name, t.Name)
	case *RawSQL:
		// Raw statements cannot be projected onto the model.
	default:
		return fmt.Errorf("unsupported operation %T", op)
	}
	return nil
}

func tableOf(s *DatabaseSchema, name string) (*Table, error) {
	t, ok := s.Table(name)
	if !ok {
		return nil, fmt.Errorf("table %q does not exist", name)
	}
	return t, nil
}

func removeTable(s *DatabaseSchema, name string) error {
	for i, t := range s.Tables {
		if t.Name == name {
			s.Tables = append(s.Tables[:i], s.Tables[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("table %q does not exist", name)
}

func removeColumn(t *Table, name string) error {
	for i, c := range t.Columns {
		if c.Name == name {
			t.Columns = append(t.Columns[:i], t.Columns[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("column %q does not exist in table %q", name, t.Name)
}

func cloneTable(t *Table) *Table {
	ct := &Table{
		Name:       t.Name,
		PrimaryKey: append([]string(nil), t.PrimaryKey...),
	}
	for _, c := range t.Columns {
		ct.Columns = append(ct.Columns, cloneColumn(c))
	}
	for _, fk := range t.ForeignKeys {
		cfk := *fk
		ct.ForeignKeys = append(ct.ForeignKeys, &cfk)
	}
	for _, idx := range t.Indexes {
		ct.Indexes = append(ct.Indexes, cloneIndex(idx))
	}
	for _, u := range t.Uniques {
		ct.Uniques = append(ct.Uniques, &Unique{Name: u.Name, Columns: append([]string(nil), u.Columns...)})
	}
	return ct
}

func cloneColumn(c *Column) *Column {
	cc := *c
	cc.Type.EnumValues = append([]string(nil), c.Type.EnumValues...)
	return &cc
}

func cloneIndex(idx *Index) *Index {
	return &Index{Name: idx.Name, Unique: idx.Unique, Columns: append([]string(nil), idx.Columns...)}
}
